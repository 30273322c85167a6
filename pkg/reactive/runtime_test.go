package reactive_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/textremind/internal/testutils"
	"github.com/aretw0/textremind/pkg/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testContext = testutils.Context

func TestRuntime_PostRunsInOrder(t *testing.T) {
	rt := reactive.NewRuntime()

	var order []int
	rt.Post(func() { order = append(order, 1) })
	rt.Post(func() {
		order = append(order, 2)
		rt.Post(func() { order = append(order, 3) })
	})

	assert.Equal(t, 3, rt.Drain())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, rt.Drain())
}

func TestRuntime_GoCompletesOnLoop(t *testing.T) {
	rt := reactive.NewRuntime()
	c := reactive.NewCell(rt, "")

	rt.Go(func(ctx context.Context) func() {
		return func() { c.Set("done") }
	})

	require.NoError(t, rt.Settle(testContext(t)))
	assert.Equal(t, "done", c.Get())
	assert.Equal(t, 0, rt.InFlight())
}

func TestRuntime_PanickingTaskDoesNotStopTheLoop(t *testing.T) {
	rt := reactive.NewRuntime()

	rt.Go(func(ctx context.Context) func() {
		panic("boom")
	})

	require.NoError(t, rt.Settle(testContext(t)))
	assert.Equal(t, 0, rt.InFlight())
}

func TestRuntime_DoWhileRunning(t *testing.T) {
	rt := reactive.NewRuntime()
	c := reactive.NewCell(rt, 0)

	ctx, cancel := context.WithCancel(testContext(t))
	errs := make(chan error, 1)
	go func() { errs <- rt.Run(ctx) }()

	require.NoError(t, rt.Do(ctx, func() { c.Set(42) }))

	var got int
	require.NoError(t, rt.Do(ctx, func() { got = c.Get() }))
	assert.Equal(t, 42, got)

	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)
}

func TestRuntime_RunOnceHonorsContext(t *testing.T) {
	rt := reactive.NewRuntime()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	n, err := rt.RunOnce(ctx)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRuntime_EffectPingPongIsBounded(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.NewCell(rt, 0)
	b := reactive.NewCell(rt, 0)

	reactive.NewEffect(rt, func() { b.Set(a.Get() + 1) })
	reactive.NewEffect(rt, func() { a.Set(b.Get() + 1) })

	// Reaching this line means the flush gave up instead of spinning forever.
	assert.Greater(t, a.Peek(), 0)
}

func TestRuntime_UntrackedReadsAreNotDependencies(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.NewCell(rt, 1)
	b := reactive.NewCell(rt, 1)

	runs := 0
	reactive.NewEffect(rt, func() {
		runs++
		a.Get()
		rt.Untracked(func() { b.Get() })
	})

	b.Set(2)
	assert.Equal(t, 1, runs)
	a.Set(2)
	assert.Equal(t, 2, runs)
}
