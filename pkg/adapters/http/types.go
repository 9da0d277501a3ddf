package http

import (
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/session"
)

// MachineInfo describes a registered machine.
type MachineInfo struct {
	Name     string   `json:"name"`
	Initial  string   `json:"initial"`
	Splitter string   `json:"splitter,omitempty"`
	States   []string `json:"states,omitempty"`
	Rules    int      `json:"rules"`
}

// CalculateRequest defines model for CalculateRequest.
type CalculateRequest struct {
	Input any `json:"input"`
}

// CalculateResponse defines model for CalculateResponse.
type CalculateResponse struct {
	Machine string `json:"machine"`
	State   string `json:"state"`
	Output  any    `json:"output"`
}

// ValidateResponse defines model for ValidateResponse.
type ValidateResponse struct {
	Machine     string              `json:"machine"`
	Valid       bool                `json:"valid"`
	Diagnostics []domain.Diagnostic `json:"diagnostics"`
}

// CreateSessionRequest defines the body of POST /sessions.
type CreateSessionRequest struct {
	Machine string `json:"machine"`
}

// FeedRequest defines model for FeedRequest.
type FeedRequest struct {
	Machine string `json:"machine,omitempty"`
	Input   any    `json:"input"`
}

// SessionResponse defines model for SessionResponse.
type SessionResponse struct {
	SessionID string   `json:"session_id"`
	Machine   string   `json:"machine"`
	State     string   `json:"state"`
	Steps     int      `json:"steps"`
	History   []string `json:"history,omitempty"`
	Output    any      `json:"output"`
	Trap      string   `json:"trap,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	State string `json:"state,omitempty"`
	Index *int   `json:"index,omitempty"`
}

func newSessionResponse(res *session.Result) SessionResponse {
	resp := SessionResponse{
		SessionID: res.Run.SessionID,
		Machine:   res.Run.Machine,
		State:     res.Run.State.Name,
		Steps:     res.Run.Steps,
		History:   res.Run.History,
		Output:    res.Output,
	}
	if res.Trap != nil {
		resp.Trap = res.Trap.Error()
	}
	return resp
}
