// Package interview implements the scripted admissions interview: it asks the
// required questions in order, re-prompts once for answers that are too
// short, and records the conversation.
package interview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/model"
)

const (
	Greeting    = "Hello! I'll ask a few questions to learn about you."
	Reprompt    = "I didn't quite catch that. Could you add a bit more detail?"
	Ack         = "Thanks, that helps."
	NoResponse  = "(no response provided)"
	ackMinChars = 20
)

var (
	ErrNoMoreQuestions = errors.New("no more questions")
	ErrUnexpectedKey   = errors.New("answer does not match the current question")
)

// State is the serializable state of one interview.
type State struct {
	Questions []model.Question  `json:"questions"`
	Answers   map[string]string `json:"answers"`
	Turns     []model.Turn      `json:"turns"`
	Index     int               `json:"index"`
	// Pending is the key of a question that has been re-prompted and is
	// waiting for its second answer.
	Pending   string          `json:"pending,omitempty"`
	FAQ       []model.FAQPair `json:"faq,omitempty"`
	StartedAt time.Time       `json:"started_at"`
}

// Outcome is the agent's reaction to a submitted answer.
type Outcome struct {
	// Reprompt is non-empty when the answer was rejected and the same
	// question must be answered once more.
	Reprompt string
	// Answer is the stored answer once accepted.
	Answer string
	// Retried is set when the answer was accepted after a re-prompt.
	Retried bool
}

// Accepted reports whether the answer was stored.
func (o Outcome) Accepted() bool { return o.Reprompt == "" }

// Agent drives an interview over a State.
type Agent struct {
	state          *State
	minAnswerChars int
	now            func() time.Time
}

// Option configures an Agent.
type Option func(*Agent)

// WithClock overrides the time source used for turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// NewAgent creates an agent for the given questions.
func NewAgent(questions []model.Question, minAnswerChars int, opts ...Option) *Agent {
	qs := make([]model.Question, len(questions))
	copy(qs, questions)

	a := &Agent{
		state: &State{
			Questions: qs,
			Answers:   make(map[string]string),
		},
		minAnswerChars: minAnswerChars,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.state.StartedAt = a.now()
	return a
}

// Restore rebuilds an agent around previously saved state.
func Restore(state *State, minAnswerChars int, opts ...Option) *Agent {
	if state.Answers == nil {
		state.Answers = make(map[string]string)
	}
	a := &Agent{state: state, minAnswerChars: minAnswerChars, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State exposes the underlying state for persistence.
func (a *Agent) State() *State { return a.state }

// Start logs the greeting and returns it.
func (a *Agent) Start() string {
	a.logTurn(model.RoleAgent, Greeting)
	return Greeting
}

// HasNext reports whether questions remain to be asked.
func (a *Agent) HasNext() bool {
	return a.state.Index < len(a.state.Questions)
}

// NextQuestion logs and returns the next question.
func (a *Agent) NextQuestion() (model.Question, error) {
	if !a.HasNext() {
		return model.Question{}, ErrNoMoreQuestions
	}
	q := a.state.Questions[a.state.Index]
	a.logTurn(model.RoleAgent, q.Text)
	a.state.Index++
	return q, nil
}

// Current returns the most recently asked question that still awaits an
// answer, if any.
func (a *Agent) Current() (model.Question, bool) {
	if a.state.Index == 0 {
		return model.Question{}, false
	}
	q := a.state.Questions[a.state.Index-1]
	if _, answered := a.state.Answers[q.Key]; answered {
		return model.Question{}, false
	}
	return q, true
}

// Submit records an answer to the question identified by key. An answer
// that is too short is re-prompted once; the second attempt is always
// accepted.
func (a *Agent) Submit(key, text string) (Outcome, error) {
	q, ok := a.Current()
	if !ok || q.Key != key {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnexpectedKey, key)
	}

	a.logTurn(model.RoleUser, text)
	answer := strings.TrimSpace(text)

	if a.state.Pending != key && a.tooShort(answer) {
		a.state.Pending = key
		a.logTurn(model.RoleAgent, Reprompt)
		return Outcome{Reprompt: Reprompt}, nil
	}

	retried := a.state.Pending == key
	if retried && answer == "" {
		answer = NoResponse
	}
	a.state.Pending = ""
	a.state.Answers[key] = answer
	return Outcome{Answer: answer, Retried: retried}, nil
}

// Acknowledge returns a short acknowledgement for a substantive first answer
// and logs it. Answers given after a re-prompt are never acknowledged.
func (a *Agent) Acknowledge(out Outcome) string {
	if !out.Accepted() || out.Retried || out.Answer == NoResponse || len(out.Answer) <= ackMinChars {
		return ""
	}
	a.logTurn(model.RoleAgent, Ack)
	return Ack
}

// Complete reports whether every question has an answer.
func (a *Agent) Complete() bool {
	return !a.HasNext() && a.state.Pending == "" && len(a.state.Answers) >= len(a.state.Questions)
}

// RecordFAQ appends a candidate question and its answer.
func (a *Agent) RecordFAQ(question, answer string) {
	a.state.FAQ = append(a.state.FAQ, model.FAQPair{Question: question, Answer: answer})
}

// BuildSession assembles the session record.
func (a *Agent) BuildSession() model.Session {
	answers := make(map[string]string, len(a.state.Answers))
	for k, v := range a.state.Answers {
		answers[k] = v
	}
	turns := make([]model.Turn, len(a.state.Turns))
	copy(turns, a.state.Turns)

	var faq []model.FAQPair
	if len(a.state.FAQ) > 0 {
		faq = make([]model.FAQPair, len(a.state.FAQ))
		copy(faq, a.state.FAQ)
	}

	return model.Session{
		Metadata: model.SessionMetadata{Project: config.ProjectName, Version: config.Version},
		Answers:  answers,
		Turns:    turns,
		FAQ:      faq,
	}
}

func (a *Agent) tooShort(text string) bool {
	return len(text) == 0 || len([]rune(text)) < a.minAnswerChars
}

func (a *Agent) logTurn(role model.Role, text string) {
	a.state.Turns = append(a.state.Turns, model.Turn{Role: role, Text: text, Time: a.now()})
}
