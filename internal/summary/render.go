package summary

import (
	"fmt"
	"strings"

	"github.com/stemsi/interview-agent/internal/model"
)

// Render formats a summary as reviewer Markdown.
func (s *Summarizer) Render(sum *model.Summary) string {
	lines := []string{"### Candidate Review (Condensed)"}

	for _, q := range s.questions {
		line := fmt.Sprintf("- **%s:** %s", q.Label, sum.Notes[q.Key])
		if q.Key == KeyReadiness {
			line += fmt.Sprintf("  (_flag_: %s)", sum.ReadinessFlag)
		}
		lines = append(lines, line)
	}

	lines = append(lines,
		"",
		"**Evaluation:** "+sum.Evaluation,
		"**Suitability:** "+strings.ToUpper(string(sum.Suitability)),
		"",
		"_Full raw answers are stored in the session JSON under `summary.raw_answers`._",
	)

	if len(s.names) > 0 {
		lines = append(lines, "\n### Principles Alignment")
		for _, name := range s.names {
			v := sum.PrinciplesAlignment[name]
			if v == "" {
				v = "—"
			}
			lines = append(lines, fmt.Sprintf("- **%s:** %s", name, v))
		}
	}

	return strings.Join(lines, "\n")
}
