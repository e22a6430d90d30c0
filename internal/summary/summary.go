// Package summary turns a finished interview into reviewer notes: a Markdown
// digest plus a structured JSON summary, optionally written by an LLM.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/faq"
	"github.com/stemsi/interview-agent/internal/llm"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stemsi/interview-agent/internal/program"
)

// Question keys the heuristics read.
const (
	KeyMotivation = "why_company"
	KeyExperience = "experience"
	KeyReadiness  = "readiness"
)

const (
	defaultEvaluation  = "Automated notes generated; consider human review for final decision."
	templateEvaluation = "Template summary: Candidate provided responses. Enable LLM summaries for richer evaluation."
	noteLength         = 220
)

// Options tunes the LLM path.
type Options struct {
	UseLLM    bool
	Cooldown  time.Duration
	AnswerCap int
}

// Summarizer builds summaries for one interview script and rubric.
type Summarizer struct {
	questions  []model.Question
	principles string
	names      []string
	gen        llm.Generator
	opts       Options
	log        zerolog.Logger
}

// NewSummarizer creates a Summarizer. gen may be nil when opts.UseLLM is
// false.
func NewSummarizer(questions []model.Question, principles string, gen llm.Generator, opts Options, log zerolog.Logger) *Summarizer {
	if opts.AnswerCap <= 0 {
		opts.AnswerCap = 800
	}
	return &Summarizer{
		questions:  questions,
		principles: strings.TrimSpace(principles),
		names:      program.PrincipleNames(principles),
		gen:        gen,
		opts:       opts,
		log:        log.With().Str("component", "summarizer").Logger(),
	}
}

// Summarize returns the reviewer Markdown and structured summary. LLM
// failures fall back to the template summary. When the session has FAQ
// pairs, their Markdown is appended and recorded in the summary.
func (s *Summarizer) Summarize(ctx context.Context, session model.Session) (string, *model.Summary) {
	var (
		md  string
		sum *model.Summary
	)

	if s.opts.UseLLM && s.gen != nil {
		var err error
		md, sum, err = s.llmSummary(ctx, session)
		if err != nil {
			s.log.Error().Err(err).Msg("LLM summary failed, using template")
			md, sum = s.templateSummary(session)
		}
	} else {
		md, sum = s.templateSummary(session)
	}

	if faqMD := faq.RenderMarkdown(session.FAQ); faqMD != "" {
		md = md + "\n---\n" + faqMD
		sum.FAQMarkdown = faqMD
	}
	return md, sum
}

func (s *Summarizer) templateSummary(session model.Session) (string, *model.Summary) {
	sum := s.coerce(rawSummary{}, session.Answers)
	sum.Evaluation = templateEvaluation
	return s.Render(sum), sum
}

func (s *Summarizer) llmSummary(ctx context.Context, session model.Session) (string, *model.Summary, error) {
	if s.opts.Cooldown > 0 {
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case <-time.After(s.opts.Cooldown):
		}
	}

	capped := make(map[string]string, len(session.Answers))
	for k, v := range session.Answers {
		if v != "" {
			capped[k] = shorten(v, s.opts.AnswerCap)
		}
	}

	prompt, err := s.buildPrompt(capped)
	if err != nil {
		return "", nil, err
	}

	resp, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("generate summary: %w", err)
	}

	sum := s.coerce(parseLenient(resp), session.Answers)
	return s.Render(sum), sum, nil
}

const systemPrompt = "You are an admissions assistant for a data/AI bootcamp. " +
	"Return STRICT JSON only. Do not include any prose outside JSON."

func (s *Summarizer) buildPrompt(answers map[string]string) (string, error) {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}

	principles := s.principles
	if principles == "" {
		principles = "(no principles provided)"
	}

	var rawKeys, noteKeys strings.Builder
	for i, q := range s.questions {
		sep := ","
		if i == len(s.questions)-1 {
			sep = ""
		}
		fmt.Fprintf(&rawKeys, "    %q: \"\"%s\n", q.Key, sep)
		fmt.Fprintf(&noteKeys, "    %q: \"1-2 sentence note based strictly on answers\"%s\n", q.Key, sep)
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	b.WriteString("You will evaluate a candidate's interview **only** using the answers below and the provided principles.\n")
	b.WriteString("Do **not** invent information. If there is **no clear supporting evidence** for a principle in the answers, leave that principle's value as an empty string.\n\n")
	b.WriteString("Interview answers (JSON-like; keys may vary):\n")
	b.Write(answersJSON)
	b.WriteString("\n\nEvaluation principles (markdown list items):\n")
	b.WriteString(principles)
	b.WriteString("\n\nReturn a single JSON object with EXACT keys:\n{\n")
	b.WriteString("  \"raw_answers\": {\n")
	b.WriteString(rawKeys.String())
	b.WriteString("  },\n  \"notes\": {\n")
	b.WriteString(noteKeys.String())
	b.WriteString("  },\n")
	b.WriteString("  \"evaluation\": \"Overall suitability notes (2-4 sentences, grounded in answers).\",\n")
	b.WriteString("  \"suitability\": \"strong|average|weak\",\n")
	b.WriteString("  \"readiness_flag\": \"ready_now|date|needs_prep|unknown\",\n")
	b.WriteString("  \"principles_alignment\": {\n")
	b.WriteString("    // keys must mirror each principle name exactly;\n")
	b.WriteString("    // each value must be SHORT evidence from the interview (1 sentence max) or \"\" if not supported.\n")
	b.WriteString("  }\n}\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Use **only** the provided answers for evidence; do not assume background knowledge.\n")
	b.WriteString("- If a principle is **not** covered by any answer, set its value to \"\" (empty string).\n")
	b.WriteString("- Keep notes concise and factual.\n")
	b.WriteString("- Output **STRICT JSON only** (no markdown fences or extra text).\n")
	return b.String(), nil
}

// pick returns the first non-empty answer for a question key or its aliases.
func (s *Summarizer) pick(answers map[string]string, key string) string {
	if v := answers[key]; v != "" {
		return v
	}
	for _, q := range s.questions {
		if q.Key != key {
			continue
		}
		for _, alias := range q.Aliases {
			if v := answers[alias]; v != "" {
				return v
			}
		}
	}
	return ""
}

func (s *Summarizer) coerce(raw rawSummary, answers map[string]string) *model.Summary {
	sum := &model.Summary{
		RawAnswers:          make(map[string]string, len(s.questions)),
		Notes:               make(map[string]string, len(s.questions)),
		Evaluation:          raw.Evaluation,
		Suitability:         model.Suitability(raw.Suitability),
		ReadinessFlag:       model.ReadinessFlag(raw.ReadinessFlag),
		PrinciplesAlignment: make(map[string]string, len(s.names)),
	}

	for _, q := range s.questions {
		answer := s.pick(answers, q.Key)
		sum.RawAnswers[q.Key] = answer
		if note := raw.Notes[q.Key]; note != "" {
			sum.Notes[q.Key] = note
		} else {
			sum.Notes[q.Key] = shorten(answer, noteLength)
		}
	}

	if sum.Evaluation == "" {
		sum.Evaluation = defaultEvaluation
	}
	if !sum.Suitability.Valid() {
		sum.Suitability = inferSuitability(s.pick(answers, KeyMotivation), s.pick(answers, KeyExperience))
	}
	if sum.ReadinessFlag == "" {
		sum.ReadinessFlag = inferReadiness(s.pick(answers, KeyReadiness))
	}

	for _, name := range s.names {
		sum.PrinciplesAlignment[name] = raw.PrinciplesAlignment[name]
	}
	return sum
}

func inferReadiness(text string) model.ReadinessFlag {
	if text == "" {
		return model.ReadinessUnknown
	}
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "not ready"):
		return model.ReadinessNeedsPrep
	case containsAny(t, "immediate", "ready", "now"):
		return model.ReadinessReadyNow
	case containsAny(t, "week", "month", " from ", "start "):
		return model.ReadinessDate
	case containsAny(t, "prep", "support", "refresh", "not ready"):
		return model.ReadinessNeedsPrep
	}
	return model.ReadinessUnknown
}

func inferSuitability(motivation, experience string) model.Suitability {
	switch {
	case len(motivation) > 120 || len(experience) > 120:
		return model.SuitabilityStrong
	case len(motivation) > 40 || len(experience) > 40:
		return model.SuitabilityAverage
	}
	return model.SuitabilityWeak
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// shorten trims s and cuts it to n runes with a trailing ellipsis.
func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " \t\r\n") + "…"
}
