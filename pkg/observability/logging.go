package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/automata/pkg/domain"
)

// LoggingHooks writes lifecycle events to logger. Transitions are logged at
// debug level, rejections and traps at info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.DebugContext(ctx, "transition",
				"machine", e.Machine,
				"from", e.From.Name,
				"to", e.To.Name,
				"symbol", e.Symbol,
				"rule", e.Rule,
			)
		},
		OnReject: func(ctx context.Context, e *domain.RejectEvent) {
			logger.InfoContext(ctx, "symbol rejected",
				"machine", e.Machine,
				"state", e.State.Name,
				"symbol", e.Symbol,
			)
		},
		OnTrap: func(ctx context.Context, e *domain.TrapEvent) {
			logger.InfoContext(ctx, "trap state reached",
				"machine", e.Machine,
				"state", e.State.Name,
			)
		},
	}
}
