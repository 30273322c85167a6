/*
Package reactive implements the dataflow engine behind the TextRemind form.

The engine is single-threaded: every read and write of a cell happens on the
goroutine that drives the Runtime (Run, Drain, RunOnce or Settle). Work that has
to leave that goroutine, such as a network check, is started with Runtime.Go and
its completion is posted back to the loop queue, so results are always applied
on the loop in a well-defined order.

# Building Blocks

  - Cell: a mutable value. Get records a read in the running derivation.
  - Computed: a lazy derivation. It re-subscribes to exactly the cells it read on
    its last run and recomputes on the next Get after any of them changed.
  - Effect: an eager derivation, re-run once per flush when a dependency changed.
  - Async: an effect that starts an off-loop Task when its dependencies are all
    satisfied and its input key changed. Completions are applied only if their
    generation is still the latest one.

# Usage

	rt := reactive.NewRuntime()
	name := reactive.NewCell(rt, "")
	greeting := reactive.NewComputed(rt, func() string {
		return "hello " + name.Get()
	})
	stop := greeting.Subscribe(func(s string) { fmt.Println(s) })
	defer stop()

	name.Set("world") // prints "hello world"
*/
package reactive
