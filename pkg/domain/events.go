package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEvaluationStart     EventType = "evaluation_start"
	EventEvaluationApplied   EventType = "evaluation_applied"
	EventEvaluationDiscarded EventType = "evaluation_discarded"
	EventEvaluationFailed    EventType = "evaluation_failed"
	EventActionStart         EventType = "action_start"
	EventActionFinish        EventType = "action_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// EvaluationEvent describes one async evaluation of a validated cell.
type EvaluationEvent struct {
	EventBase
	Cell       string `json:"cell"`
	Generation uint64 `json:"generation"`
	Key        string `json:"key,omitempty"`
	Err        error  `json:"-"`
}

// ActionEvent describes one user-triggered action round trip.
type ActionEvent struct {
	EventBase
	Action  string `json:"action"`
	Skipped bool   `json:"skipped,omitempty"`
	Err     error  `json:"-"`
}

// LifecycleHooks defines callbacks for form observability.
// Hooks run on the form's event loop and must not block.
type LifecycleHooks struct {
	OnEvaluationStart  func(context.Context, *EvaluationEvent)
	OnEvaluationSettle func(context.Context, *EvaluationEvent)
	OnActionStart      func(context.Context, *ActionEvent)
	OnActionFinish     func(context.Context, *ActionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnEvaluationStart:  chainEval(h.OnEvaluationStart, other.OnEvaluationStart),
		OnEvaluationSettle: chainEval(h.OnEvaluationSettle, other.OnEvaluationSettle),
		OnActionStart:      chainAction(h.OnActionStart, other.OnActionStart),
		OnActionFinish:     chainAction(h.OnActionFinish, other.OnActionFinish),
	}
}

func chainEval(a, b func(context.Context, *EvaluationEvent)) func(context.Context, *EvaluationEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *EvaluationEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainAction(a, b func(context.Context, *ActionEvent)) func(context.Context, *ActionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *ActionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
