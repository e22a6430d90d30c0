package websocket

import "github.com/stemsi/interview-agent/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionAsk    Action = "ask"
	ActionFinish Action = "finish"
	ActionPing   Action = "ping"
)

// RequestPayload is any client message. Only the fields used by Action are
// read.
type RequestPayload struct {
	Action   Action `json:"action"`
	Text     string `json:"text,omitempty"`
	Question string `json:"question,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventQuestion  Event = "question"
	EventReprompt  Event = "reprompt"
	EventAck       Event = "ack"
	EventFAQOpen   Event = "faq_open"
	EventFAQAnswer Event = "faq_answer"
	EventSummary   Event = "summary"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// QuestionResponse asks the candidate a question. Greeting is only set on
// the first question of a new session.
type QuestionResponse struct {
	Event     Event           `json:"event"`
	SessionID string          `json:"session_id"`
	Greeting  string          `json:"greeting,omitempty"`
	Question  *model.Question `json:"question"`
}

// MessageResponse carries a plain agent message (reprompt, ack, faq_open).
type MessageResponse struct {
	Event   Event  `json:"event"`
	Message string `json:"message"`
}

type FAQAnswerResponse struct {
	Event  Event  `json:"event"`
	Answer string `json:"answer,omitempty"`
	Done   bool   `json:"done"`
}

type SummaryResponse struct {
	Event     Event          `json:"event"`
	SessionID string         `json:"session_id"`
	Markdown  string         `json:"markdown"`
	Summary   *model.Summary `json:"summary"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
