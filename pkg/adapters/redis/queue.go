package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/textremind/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

func (s *Store) queueKey() string {
	return s.prefix + "messages"
}

func (s *Store) messageKey(id string) string {
	return s.prefix + "message:" + id
}

// Enqueue adds msg to the sorted set of scheduled messages (score = unix
// delivery time) and stores its body and recipient in a hash, atomically.
func (s *Store) Enqueue(ctx context.Context, msg domain.ScheduledMessage) error {
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.queueKey(), backend.Z{
		Score:  float64(msg.DeliverAt.Unix()),
		Member: msg.ID,
	})
	pipe.HSet(ctx, s.messageKey(msg.ID), "body", msg.Body, "to", msg.To)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue message: %w", err)
	}
	return nil
}

// Due returns the messages whose delivery time is not after now, oldest first.
func (s *Store) Due(ctx context.Context, now time.Time) ([]domain.ScheduledMessage, error) {
	entries, err := s.client.ZRangeByScoreWithScores(ctx, s.queueKey(), &backend.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list due messages: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*backend.MapStringStringCmd, len(entries))
	for i, e := range entries {
		cmds[i] = pipe.HGetAll(ctx, s.messageKey(e.Member.(string)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to load due messages: %w", err)
	}

	due := make([]domain.ScheduledMessage, 0, len(entries))
	for i, e := range entries {
		fields := cmds[i].Val()
		due = append(due, domain.ScheduledMessage{
			ID:        e.Member.(string),
			Body:      fields["body"],
			To:        fields["to"],
			DeliverAt: time.Unix(int64(e.Score), 0).In(now.Location()),
		})
	}
	return due, nil
}

// Ack removes a delivered message from the queue and deletes its hash.
func (s *Store) Ack(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, s.queueKey(), id)
	pipe.Del(ctx, s.messageKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	return nil
}

// Len returns the number of queued messages.
func (s *Store) Len(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return int(n), nil
}
