package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/textremind/pkg/domain"
)

// Queue implements ports.MessageQueue in memory.
// Safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	messages map[string]domain.ScheduledMessage
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{messages: make(map[string]domain.ScheduledMessage)}
}

// Enqueue adds msg, replacing any message with the same ID.
func (q *Queue) Enqueue(ctx context.Context, msg domain.ScheduledMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages[msg.ID] = msg
	return nil
}

// Due returns the messages due at now, oldest first.
func (q *Queue) Due(ctx context.Context, now time.Time) ([]domain.ScheduledMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []domain.ScheduledMessage
	for _, m := range q.messages {
		if m.Due(now) {
			due = append(due, m)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].DeliverAt.Equal(due[j].DeliverAt) {
			return due[i].ID < due[j].ID
		}
		return due[i].DeliverAt.Before(due[j].DeliverAt)
	})
	return due, nil
}

// Ack removes a message.
func (q *Queue) Ack(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.messages, id)
	return nil
}

// Len returns the number of queued messages.
func (q *Queue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages), nil
}
