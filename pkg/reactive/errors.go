package reactive

import "errors"

// ErrCycle is raised when a computed reads itself while being evaluated.
var ErrCycle = errors.New("reactive: dependency cycle")

// ErrPanicked is reported when an off-loop task panics instead of returning.
var ErrPanicked = errors.New("reactive: task panicked")
