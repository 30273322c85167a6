package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/textremind/pkg/domain"
)

// LogHooks returns lifecycle hooks that write every event to logger.
// Starts are logged at debug level, failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvaluationStart: func(ctx context.Context, e *domain.EvaluationEvent) {
			logger.DebugContext(ctx, string(e.Type), "cell", e.Cell, "generation", e.Generation)
		},
		OnEvaluationSettle: func(ctx context.Context, e *domain.EvaluationEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, string(e.Type), "cell", e.Cell, "generation", e.Generation, "error", e.Err)
				return
			}
			logger.DebugContext(ctx, string(e.Type), "cell", e.Cell, "generation", e.Generation)
		},
		OnActionStart: func(ctx context.Context, e *domain.ActionEvent) {
			logger.DebugContext(ctx, string(e.Type), "action", e.Action)
		},
		OnActionFinish: func(ctx context.Context, e *domain.ActionEvent) {
			switch {
			case e.Err != nil:
				logger.WarnContext(ctx, string(e.Type), "action", e.Action, "error", e.Err)
			case e.Skipped:
				logger.DebugContext(ctx, string(e.Type), "action", e.Action, "skipped", true)
			default:
				logger.InfoContext(ctx, string(e.Type), "action", e.Action)
			}
		},
	}
}
