package reactive_test

import (
	"testing"

	"github.com/aretw0/textremind/pkg/reactive"
	"github.com/stretchr/testify/assert"
)

func TestCell_GetSet(t *testing.T) {
	rt := reactive.NewRuntime()
	c := reactive.NewCell(rt, 1)

	assert.Equal(t, 1, c.Get())
	c.Set(2)
	assert.Equal(t, 2, c.Get())
	c.Update(func(v int) int { return v * 10 })
	assert.Equal(t, 20, c.Peek())
}

func TestCell_Subscribe(t *testing.T) {
	rt := reactive.NewRuntime()
	c := reactive.NewCell(rt, "a")

	var seen []string
	stop := c.Subscribe(func(v string) { seen = append(seen, v) })

	assert.Empty(t, seen, "subscribe must not fire for the initial value")

	c.Set("b")
	c.Set("b") // same value still notifies
	stop()
	c.Set("c")

	assert.Equal(t, []string{"b", "b"}, seen)
}

func TestCell_SetInsideBatchNotifiesOnce(t *testing.T) {
	rt := reactive.NewRuntime()
	c := reactive.NewCell(rt, 0)

	calls := 0
	c.Subscribe(func(int) { calls++ })

	rt.Batch(func() {
		c.Set(1)
		c.Set(2)
		c.Set(3)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, c.Get())
}
