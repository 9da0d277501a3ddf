package domain

import "time"

// Run is the persisted snapshot of an incremental session: which machine is
// being fed and where it currently stands.
type Run struct {
	SessionID string    `json:"session_id"`
	Machine   string    `json:"machine"`
	State     State     `json:"state"`
	Steps     int       `json:"steps"`
	History   []string  `json:"history,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted run when a store is wrapped by an
	// encryption middleware; the other fields are then only an envelope.
	Sealed string `json:"sealed,omitempty"`
}

// NewRun creates a run positioned at the initial state of a machine.
func NewRun(sessionID, machine string, initial State) *Run {
	return &Run{
		SessionID: sessionID,
		Machine:   machine,
		State:     initial,
		History:   []string{initial.Name},
		UpdatedAt: time.Now(),
	}
}

// Snapshot returns a deep copy of the run.
func (r *Run) Snapshot() *Run {
	if r == nil {
		return nil
	}
	c := *r
	c.History = append([]string(nil), r.History...)
	return &c
}
