package model

import "time"

// Phase is where a live interview currently stands.
type Phase string

const (
	PhaseQuestions Phase = "questions"
	PhaseFAQ       Phase = "faq"
)

// StartInterviewResponse is returned when a new interview begins.
type StartInterviewResponse struct {
	SessionID string    `json:"session_id"`
	Greeting  string    `json:"greeting"`
	Question  *Question `json:"question"`
}

// SubmitAnswerRequest is the payload for answering the current question.
type SubmitAnswerRequest struct {
	Text string `json:"text" binding:"max=8000"`
}

// SubmitAnswerResponse tells the client what the agent says next.
type SubmitAnswerResponse struct {
	Reprompt string    `json:"reprompt,omitempty"`
	Ack      string    `json:"ack,omitempty"`
	Question *Question `json:"question,omitempty"`
	Phase    Phase     `json:"phase"`
}

// AskFAQRequest is the payload for a candidate question.
type AskFAQRequest struct {
	Question string `json:"question" binding:"max=2000"`
}

// AskFAQResponse carries the agent's answer, or Done when the candidate has
// no further questions.
type AskFAQResponse struct {
	Answer string `json:"answer,omitempty"`
	Done   bool   `json:"done"`
}

// FinishInterviewResponse is the reviewer summary of a finished interview.
type FinishInterviewResponse struct {
	SessionID string   `json:"session_id"`
	Markdown  string   `json:"markdown"`
	Summary   *Summary `json:"summary"`
}

// InterviewSnapshot is a read-only view of a live interview.
type InterviewSnapshot struct {
	SessionID       string    `json:"session_id"`
	Phase           Phase     `json:"phase"`
	Answered        int       `json:"answered"`
	Total           int       `json:"total"`
	CurrentQuestion *Question `json:"current_question,omitempty"`
	FAQCount        int       `json:"faq_count"`
	StartedAt       time.Time `json:"started_at"`
}
