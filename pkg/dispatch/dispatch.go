// Package dispatch delivers scheduled messages once their time has come.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/textremind/internal/logging"
	"github.com/aretw0/textremind/pkg/observability"
	"github.com/aretw0/textremind/pkg/ports"
)

// lockKey guards a dispatch pass across replicas.
const lockKey = "dispatch"

// ErrLockExpired is returned when a locked pass runs out of lock time before
// every due message was sent. The rest stays queued for the next pass.
var ErrLockExpired = errors.New("dispatch lock expired before the pass finished")

// Report summarizes one dispatch pass.
type Report struct {
	Sent   int
	Failed int
	Left   int
}

// Dispatcher sends due messages at the start of every minute.
type Dispatcher struct {
	queue   ports.MessageQueue
	sender  ports.SMSSender
	locker  ports.DistributedLocker
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
	lockTTL time.Duration
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLocker makes every pass hold a distributed lock, so replicas sharing a
// queue never send the same message twice.
func WithLocker(l ports.DistributedLocker) Option {
	return func(d *Dispatcher) {
		d.locker = l
	}
}

// WithLockTTL sets how long a pass may hold the lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) {
		d.lockTTL = ttl
	}
}

// WithMetrics records delivery outcomes and queue depth.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClock overrides the clock deciding which messages are due.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// New creates a dispatcher draining queue through sender.
func New(queue ports.MessageQueue, sender ports.SMSSender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:   queue,
		sender:  sender,
		logger:  logging.NewNop(),
		now:     time.Now,
		lockTTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DispatchDue sends every due message once. Delivered messages are removed from
// the queue; failed ones stay queued for the next pass. With a locker, sending
// stops when the lock expires.
func (d *Dispatcher) DispatchDue(ctx context.Context) (Report, error) {
	sendCtx := ctx
	if d.locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, d.lockTTL)
		unlock, err := d.locker.Lock(lockCtx, lockKey, d.lockTTL)
		cancel()
		if err != nil {
			return Report{}, fmt.Errorf("failed to acquire dispatch lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				d.logger.Warn("failed to release dispatch lock", "error", err)
			}
		}()

		var stop context.CancelFunc
		sendCtx, stop = context.WithTimeout(ctx, d.lockTTL)
		defer stop()
	}

	due, err := d.queue.Due(sendCtx, d.now())
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, msg := range due {
		if err := d.passErr(ctx, sendCtx); err != nil {
			return report, err
		}
		err := d.sender.Send(sendCtx, msg.To, msg.Body)
		if d.metrics != nil {
			d.metrics.ObserveDispatch(err)
		}
		if err != nil {
			report.Failed++
			d.logger.Error("message delivery failed", "id", msg.ID, "error", err)
			continue
		}
		if err := d.queue.Ack(context.WithoutCancel(ctx), msg.ID); err != nil {
			// Sent but still queued: it will go out again on the next pass.
			d.logger.Error("failed to remove delivered message", "id", msg.ID, "error", err)
		}
		report.Sent++
		d.logger.Info("message delivered", "id", msg.ID)
	}

	left, err := d.queue.Len(ctx)
	if err != nil {
		return report, err
	}
	report.Left = left
	if d.metrics != nil {
		d.metrics.QueueDepth.Set(float64(left))
	}
	return report, nil
}

// passErr reports why the pass must stop: the caller's context, or the lock
// running out.
func (d *Dispatcher) passErr(ctx, sendCtx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sendCtx.Err() != nil {
		return ErrLockExpired
	}
	return nil
}

// Run dispatches at the start of every minute until ctx is done. It returns nil
// on cancellation; a failed pass is logged and does not stop the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("message dispatcher running")
	for {
		wait := NextMinute(d.now()).Sub(d.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.logger.Info("message dispatcher stopped")
			return nil
		case <-timer.C:
		}

		report, err := d.DispatchDue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			d.logger.Error("dispatch pass failed", "error", err)
			continue
		}
		if report.Sent > 0 || report.Failed > 0 {
			d.logger.Info("dispatch pass finished", "sent", report.Sent, "failed", report.Failed, "queued", report.Left)
		}
	}
}

// NextMinute returns the start of the minute after t.
func NextMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute).Add(time.Minute)
}
