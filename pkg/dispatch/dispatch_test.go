package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/textremind/pkg/adapters/memory"
	"github.com/aretw0/textremind/pkg/adapters/redis"
	"github.com/aretw0/textremind/pkg/dispatch"
	"github.com/aretw0/textremind/pkg/domain"
	"github.com/aretw0/textremind/pkg/observability"
	"github.com/aretw0/textremind/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func enqueue(t *testing.T, q ports.MessageQueue, id string, at time.Time) {
	t.Helper()
	require.NoError(t, q.Enqueue(context.Background(), domain.ScheduledMessage{
		ID: id, Body: "body of " + id, To: "5551234567", DeliverAt: at,
	}))
}

func TestDispatchDue_SendsAndAcks(t *testing.T) {
	q := memory.NewQueue()
	out := memory.NewOutbox()
	enqueue(t, q, "due", now.Add(-time.Minute))
	enqueue(t, q, "now", now)
	enqueue(t, q, "later", now.Add(time.Hour))

	d := dispatch.New(q, out, dispatch.WithClock(clock))
	report, err := d.DispatchDue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, dispatch.Report{Sent: 2, Left: 1}, report)
	assert.Equal(t, []memory.Sent{
		{To: "5551234567", Body: "body of due"},
		{To: "5551234567", Body: "body of now"},
	}, out.Sent())

	report, err = d.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent, "delivered messages are not sent twice")
}

func TestDispatchDue_KeepsFailed(t *testing.T) {
	q := memory.NewQueue()
	out := memory.NewOutbox()
	enqueue(t, q, "due", now.Add(-time.Minute))

	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	d := dispatch.New(q, out, dispatch.WithClock(clock), dispatch.WithMetrics(m))

	out.FailWith(errors.New("carrier down"))
	report, err := d.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dispatch.Report{Failed: 1, Left: 1}, report)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatched.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueueDepth))

	out.FailWith(nil)
	report, err = d.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dispatch.Report{Sent: 1}, report)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatched.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueueDepth))
}

// MockLocker for testing
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	args := m.Called(key, ttl)
	unlock, _ := args.Get(0).(ports.UnlockFunc)
	return unlock, args.Error(1)
}

func TestDispatchDue_HoldsLock(t *testing.T) {
	q := memory.NewQueue()
	enqueue(t, q, "due", now.Add(-time.Minute))

	released := false
	locker := new(MockLocker)
	locker.On("Lock", "dispatch", 10*time.Second).
		Return(ports.UnlockFunc(func(context.Context) error { released = true; return nil }), nil)

	d := dispatch.New(q, memory.NewOutbox(), dispatch.WithClock(clock),
		dispatch.WithLocker(locker), dispatch.WithLockTTL(10*time.Second))
	_, err := d.DispatchDue(context.Background())

	require.NoError(t, err)
	assert.True(t, released)
	locker.AssertExpectations(t)
}

func TestDispatchDue_LockUnavailable(t *testing.T) {
	q := memory.NewQueue()
	out := memory.NewOutbox()
	enqueue(t, q, "due", now.Add(-time.Minute))

	locker := new(MockLocker)
	locker.On("Lock", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	d := dispatch.New(q, out, dispatch.WithClock(clock), dispatch.WithLocker(locker))
	_, err := d.DispatchDue(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, out.Sent())
}

// stallingSender never answers before its context is done.
type stallingSender struct {
	calls int
}

func (s *stallingSender) Send(ctx context.Context, _, _ string) error {
	s.calls++
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatchDue_StopsWhenLockExpires(t *testing.T) {
	q := memory.NewQueue()
	enqueue(t, q, "first", now.Add(-2*time.Minute))
	enqueue(t, q, "second", now.Add(-time.Minute))

	locker := new(MockLocker)
	locker.On("Lock", "dispatch", 50*time.Millisecond).
		Return(ports.UnlockFunc(func(context.Context) error { return nil }), nil)

	sender := &stallingSender{}
	d := dispatch.New(q, sender, dispatch.WithClock(clock),
		dispatch.WithLocker(locker), dispatch.WithLockTTL(50*time.Millisecond))

	start := time.Now()
	report, err := d.DispatchDue(context.Background())

	assert.ErrorIs(t, err, dispatch.ErrLockExpired)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, sender.calls, "nothing is sent once the lock is gone")
	assert.Equal(t, 1, report.Failed)

	left, err := q.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, left)
}

func TestDispatchDue_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	store := redis.NewFromClient(client)
	out := memory.NewOutbox()
	enqueue(t, store, "due", now.Add(-time.Minute))

	d := dispatch.New(store, out, dispatch.WithClock(clock),
		dispatch.WithLocker(redis.NewLocker(client, "textremind:")))
	report, err := d.DispatchDue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.False(t, mr.Exists("textremind:lock:dispatch"), "lock is released after the pass")
	assert.False(t, mr.Exists("textremind:message:due"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	d := dispatch.New(memory.NewQueue(), memory.NewOutbox())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, d.Run(ctx))
}

func TestNextMinute(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 42, 500, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 12, 1, 0, 0, time.UTC), dispatch.NextMinute(at))
	assert.Equal(t, time.Date(2026, 10, 19, 12, 1, 0, 0, time.UTC), dispatch.NextMinute(now))
}
