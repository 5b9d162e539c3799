package websocket

import (
	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload is the single client message shape; fields beyond the
// action are read per action.
type RequestPayload struct {
	Action Action `json:"action"`

	// answer
	QuestionID string             `json:"question_id,omitempty"`
	Value      *model.AnswerValue `json:"value,omitempty"`

	// navigate
	Index *int `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState      Event = "state"
	EventTick       Event = "tick"
	EventSaveStatus Event = "save_status"
	EventSubmitted  Event = "submitted"
	EventNavigate   Event = "navigate"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

// StateResponse is the initial payload after the session loads: the
// paper-safe question list in the student's order, their answers so far,
// and the remaining time.
type StateResponse struct {
	Event            Event                      `json:"event"`
	AttemptID        uuid.UUID                  `json:"attempt_id"`
	Questions        []model.QuestionForStudent `json:"questions"`
	Answers          []model.Answer             `json:"answers"`
	RemainingSeconds int                        `json:"remaining_seconds"`
}

type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
	LowTime          bool  `json:"low_time"`
}

type SaveStatusResponse struct {
	Event      Event  `json:"event"`
	QuestionID string `json:"question_id"`
	Status     string `json:"status"`
}

type SubmittedResponse struct {
	Event      Event   `json:"event"`
	Status     string  `json:"status"`
	Score      int     `json:"score"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

type NavigateResponse struct {
	Event Event `json:"event"`
	Index int   `json:"index"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
