package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var questions = []model.Question{
	{Key: "background", Label: "Background", Aliases: []string{"full_name_background"}},
	{Key: "why_company", Label: "Why Acme", Aliases: []string{"motivation"}},
	{Key: "experience", Label: "Experience"},
	{Key: "future_goals", Label: "Goals"},
	{Key: "readiness", Label: "Readiness"},
}

const principles = "# Principles\n- Curiosity\n- Commitment\n"

type stubGenerator struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.reply, s.err
}

func TestExtractJSONBlock(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"fenced", "Here:\n```json\n{\"a\": 1}\n```\nthanks", `{"a": 1}`, true},
		{"fenced without tag", "```\n{\"a\": 2}\n```", `{"a": 2}`, true},
		{"embedded", `The result is {"a": {"b": 3}} as requested.`, `{"a": {"b": 3}}`, true},
		{"widest span wins", `x {"a": 1} y {"b": 2} z`, `{"a": 1}`, true},
		{"bare array", ` [1, 2] `, `[1, 2]`, true},
		{"garbage", "no json here", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractJSONBlock(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseLenient(t *testing.T) {
	raw := parseLenient("Sure!\n```json\n{\"suitability\": \"strong\", \"notes\": {\"background\": \"Physicist.\", \"bad\": 3}, \"evaluation\": 7}\n```")
	assert.Equal(t, "strong", raw.Suitability)
	assert.Equal(t, map[string]string{"background": "Physicist."}, raw.Notes)
	assert.Empty(t, raw.Evaluation, "non-string evaluation is dropped")

	assert.Equal(t, rawSummary{}, parseLenient("not json"))
}

func TestInferReadiness(t *testing.T) {
	cases := map[string]model.ReadinessFlag{
		"":                               model.ReadinessUnknown,
		"Yes, I can begin immediately":   model.ReadinessReadyNow,
		"I'm ready":                      model.ReadinessReadyNow,
		"In two weeks":                   model.ReadinessDate,
		"I could start next month":       model.ReadinessDate,
		"I need some prep on statistics": model.ReadinessNeedsPrep,
		"I'm not ready yet":              model.ReadinessNeedsPrep,
		"Would like to refresh Python":   model.ReadinessNeedsPrep,
		"Hard to say":                    model.ReadinessUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, inferReadiness(in), in)
	}
}

func TestInferSuitability(t *testing.T) {
	long := strings.Repeat("x", 121)
	mid := strings.Repeat("x", 41)

	assert.Equal(t, model.SuitabilityStrong, inferSuitability(long, ""))
	assert.Equal(t, model.SuitabilityStrong, inferSuitability("", long))
	assert.Equal(t, model.SuitabilityAverage, inferSuitability(mid, ""))
	assert.Equal(t, model.SuitabilityWeak, inferSuitability("short", "short"))
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "abc", shorten("  abc  ", 5))
	assert.Equal(t, "ab…", shorten("ab cdef", 3))
	assert.Equal(t, "héé…", shorten("hééllo", 3), "counts runes, not bytes")
	assert.Equal(t, "", shorten("", 3))
}

func TestSummarize_Template(t *testing.T) {
	s := NewSummarizer(questions, principles, nil, Options{UseLLM: false}, zerolog.Nop())

	md, sum := s.Summarize(context.Background(), model.Session{Answers: map[string]string{
		"full_name_background": "Ana, physics graduate.",
		"motivation":           strings.Repeat("I love the project-based format. ", 2),
		"experience":           "Kaggle",
		"readiness":            "Ready now",
	}})

	assert.Equal(t, templateEvaluation, sum.Evaluation)
	assert.Equal(t, "Ana, physics graduate.", sum.RawAnswers["background"], "aliases are picked up")
	assert.Equal(t, "Ana, physics graduate.", sum.Notes["background"])
	assert.Equal(t, "", sum.RawAnswers["future_goals"])
	assert.Equal(t, model.SuitabilityAverage, sum.Suitability)
	assert.Equal(t, model.ReadinessReadyNow, sum.ReadinessFlag)
	assert.Equal(t, map[string]string{"Curiosity": "", "Commitment": ""}, sum.PrinciplesAlignment)
	assert.Empty(t, sum.FAQMarkdown)

	assert.True(t, strings.HasPrefix(md, "### Candidate Review (Condensed)\n- **Background:** Ana, physics graduate.\n"))
	assert.Contains(t, md, "- **Readiness:** Ready now  (_flag_: ready_now)")
	assert.Contains(t, md, "**Suitability:** AVERAGE")
	assert.Contains(t, md, "\n### Principles Alignment\n- **Curiosity:** —\n- **Commitment:** —")
}

func TestSummarize_LLM(t *testing.T) {
	gen := &stubGenerator{reply: "```json\n" + `{
		"notes": {"background": "Physics grad moving into ML."},
		"evaluation": "Motivated candidate.",
		"suitability": "strong",
		"readiness_flag": "date",
		"principles_alignment": {"Curiosity": "Taught herself PyTorch.", "Unknown principle": "ignored"}
	}` + "\n```"}
	s := NewSummarizer(questions, principles, gen, Options{UseLLM: true, AnswerCap: 10}, zerolog.Nop())

	long := "This answer is definitely longer than ten characters."
	md, sum := s.Summarize(context.Background(), model.Session{Answers: map[string]string{
		"background": long,
		"readiness":  "",
	}})

	require.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.prompt, `"background":"This answe…"`, "answers are capped")
	assert.NotContains(t, gen.prompt, `"readiness":""`, "empty answers are not sent")
	assert.Contains(t, gen.prompt, "- Curiosity")
	assert.Contains(t, gen.prompt, `"future_goals": ""`)

	assert.Equal(t, "Physics grad moving into ML.", sum.Notes["background"])
	assert.Equal(t, long, sum.RawAnswers["background"], "raw answers are not capped")
	assert.Equal(t, "Motivated candidate.", sum.Evaluation)
	assert.Equal(t, model.SuitabilityStrong, sum.Suitability)
	assert.Equal(t, model.ReadinessDate, sum.ReadinessFlag)
	assert.Equal(t, map[string]string{"Curiosity": "Taught herself PyTorch.", "Commitment": ""}, sum.PrinciplesAlignment)
	assert.Contains(t, md, "- **Curiosity:** Taught herself PyTorch.")
}

func TestSummarize_LLMInvalidSuitabilityFallsBack(t *testing.T) {
	gen := &stubGenerator{reply: `{"suitability": "excellent"}`}
	s := NewSummarizer(questions, "", gen, Options{UseLLM: true}, zerolog.Nop())

	_, sum := s.Summarize(context.Background(), model.Session{Answers: map[string]string{}})
	assert.Equal(t, model.SuitabilityWeak, sum.Suitability)
	assert.Equal(t, defaultEvaluation, sum.Evaluation)
	assert.Equal(t, model.ReadinessUnknown, sum.ReadinessFlag)
	assert.Contains(t, gen.prompt, "(no principles provided)")
	assert.Empty(t, sum.PrinciplesAlignment)
}

func TestSummarize_LLMErrorFallsBackToTemplate(t *testing.T) {
	gen := &stubGenerator{err: errors.New("timeout")}
	s := NewSummarizer(questions, principles, gen, Options{UseLLM: true}, zerolog.Nop())

	_, sum := s.Summarize(context.Background(), model.Session{Answers: map[string]string{"background": "x"}})
	assert.Equal(t, templateEvaluation, sum.Evaluation)
}

func TestSummarize_CooldownRespectsContext(t *testing.T) {
	gen := &stubGenerator{reply: "{}"}
	s := NewSummarizer(questions, principles, gen, Options{UseLLM: true, Cooldown: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, sum := s.Summarize(ctx, model.Session{})
	assert.Equal(t, 0, gen.calls)
	assert.Equal(t, templateEvaluation, sum.Evaluation)
}

func TestSummarize_AppendsFAQ(t *testing.T) {
	s := NewSummarizer(questions, principles, nil, Options{}, zerolog.Nop())

	md, sum := s.Summarize(context.Background(), model.Session{
		Answers: map[string]string{},
		FAQ:     []model.FAQPair{{Question: "Cost?", Answer: "$7,500"}},
	})

	assert.Contains(t, md, "\n---\n\n### Candidate Q&A\n")
	assert.True(t, strings.HasSuffix(md, "- **Q:** Cost?\n  **A:** $7,500"))
	assert.Equal(t, "\n### Candidate Q&A\n\n- **Q:** Cost?\n  **A:** $7,500", sum.FAQMarkdown)
}
