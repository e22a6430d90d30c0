package model

import "time"

// Role identifies who produced a transcript turn.
type Role string

const (
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// Turn is a single line of the interview conversation.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// SessionMetadata identifies the program that produced a session.
type SessionMetadata struct {
	Project string `json:"project"`
	Version string `json:"version"`
}

// FAQPair is one candidate question and the agent's answer.
type FAQPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Session is the record of a completed interview.
type Session struct {
	ID       string            `json:"id,omitempty"`
	Metadata SessionMetadata   `json:"metadata"`
	Answers  map[string]string `json:"answers"`
	Turns    []Turn            `json:"turns"`
	FAQ      []FAQPair         `json:"faq,omitempty"`
}

// SessionFile is the JSON document written next to the transcript.
type SessionFile struct {
	Session Session   `json:"session"`
	Summary *Summary  `json:"summary"`
	SavedAt time.Time `json:"saved_at"`
}
