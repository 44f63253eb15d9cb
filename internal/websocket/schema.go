package websocket

import "github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAttempt Action = "attempt"
	ActionPing    Action = "ping"
)

// RequestPayload is the union of all client messages; Action selects
// which fields are meaningful.
type RequestPayload struct {
	Action        Action   `json:"action"`
	WordID        int      `json:"word_id,omitempty"`
	Transcription string   `json:"transcription,omitempty"`
	Threshold     *float64 `json:"threshold,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventVerdict Event = "verdict"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// VerdictResponse carries the decision for one attempt.
type VerdictResponse struct {
	Event Event `json:"event"`
	*model.MatchResponse
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
