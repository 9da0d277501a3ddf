package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventReject     EventType = "reject"
	EventTrap       EventType = "trap"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Machine   string    `json:"machine,omitempty"`
}

// TransitionEvent is emitted after a rule has been applied.
type TransitionEvent struct {
	EventBase
	From   State  `json:"from"`
	To     State  `json:"to"`
	Symbol any    `json:"symbol"`
	Rule   string `json:"rule"`
}

// RejectEvent is emitted when a symbol matches no rule of the current state.
type RejectEvent struct {
	EventBase
	State  State `json:"state"`
	Symbol any   `json:"symbol"`
}

// TrapEvent is emitted when Output is read on a state mapped to Raise.
type TrapEvent struct {
	EventBase
	State State `json:"state"`
}

// LifecycleHooks defines callbacks for machine observability.
// Any of them may be nil.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnReject     func(context.Context, *RejectEvent)
	OnTrap       func(context.Context, *TrapEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnReject:     chain(h.OnReject, other.OnReject),
		OnTrap:       chain(h.OnTrap, other.OnTrap),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
