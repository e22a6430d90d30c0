// Package faq answers candidate questions about the program using the FAQ
// document as the only context.
package faq

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/llm"
	"github.com/stemsi/interview-agent/internal/model"
)

const (
	noContext = "(No FAQ context provided.)"
	Intro     = "Ask your questions about the program. Type 'no' or 'done' to exit."
)

var exitWords = map[string]bool{
	"no":      true,
	"done":    true,
	"nothing": true,
	"exit":    true,
}

// IsExit reports whether the candidate is done asking questions.
func IsExit(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	return q == "" || exitWords[q]
}

// Responder answers questions against a fixed FAQ text.
type Responder struct {
	gen     llm.Generator
	faqText string
	log     zerolog.Logger
}

// NewResponder creates a Responder. An empty faqText is replaced with a
// placeholder so the model is told there is no context.
func NewResponder(gen llm.Generator, faqText string, log zerolog.Logger) *Responder {
	faqText = strings.TrimSpace(faqText)
	if faqText == "" {
		faqText = noContext
	}
	return &Responder{
		gen:     gen,
		faqText: faqText,
		log:     log.With().Str("component", "faq").Logger(),
	}
}

func (r *Responder) prompt(question string) string {
	return fmt.Sprintf(
		"You are an admissions assistant. Answer the user's question using ONLY this program FAQ:\n\n%s\n\nQuestion: %s\n\nAnswer:",
		r.faqText, question,
	)
}

// Answer returns the model's answer. Generation failures are reported inline
// so the conversation can continue.
func (r *Responder) Answer(ctx context.Context, question string) string {
	question = strings.TrimSpace(question)
	resp, err := r.gen.Generate(ctx, r.prompt(question))
	if err != nil {
		r.log.Error().Err(err).Msg("FAQ answer failed")
		return fmt.Sprintf("[Error getting answer: %v]", err)
	}
	return strings.TrimSpace(resp)
}

// RenderMarkdown renders Q&A pairs for the reviewer summary. Returns "" when
// there are none.
func RenderMarkdown(pairs []model.FAQPair) string {
	if len(pairs) == 0 {
		return ""
	}

	lines := []string{"\n### Candidate Q&A\n"}
	for _, p := range pairs {
		lines = append(lines, fmt.Sprintf("- **Q:** %s\n  **A:** %s", p.Question, p.Answer))
	}
	return strings.Join(lines, "\n")
}
