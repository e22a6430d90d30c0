package summary

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?i)```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// extractJSONBlock finds a JSON document inside free text: first a fenced
// block, then the widest {...} span that parses, then the whole text.
func extractJSONBlock(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	if m := fenceRe.FindStringSubmatch(text); m != nil {
		cand := strings.TrimSpace(m[1])
		if json.Valid([]byte(cand)) {
			return cand, true
		}
	}

	var opens, closes []int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			opens = append(opens, i)
		case '}':
			closes = append(closes, i)
		}
	}
	for _, o := range opens {
		for j := len(closes) - 1; j >= 0 && closes[j] > o; j-- {
			s := text[o : closes[j]+1]
			if json.Valid([]byte(s)) {
				return s, true
			}
		}
	}

	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) {
		return trimmed, true
	}
	return "", false
}

// rawSummary is the loosely-typed shape the model is asked to return.
type rawSummary struct {
	Notes               map[string]string `json:"notes"`
	Evaluation          string            `json:"evaluation"`
	Suitability         string            `json:"suitability"`
	ReadinessFlag       string            `json:"readiness_flag"`
	PrinciplesAlignment map[string]string `json:"principles_alignment"`
}

// parseLenient decodes a model reply. Anything unparseable yields the zero
// value; fields with unexpected types are dropped individually.
func parseLenient(text string) rawSummary {
	var generic map[string]any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		block, ok := extractJSONBlock(text)
		if !ok || json.Unmarshal([]byte(block), &generic) != nil {
			return rawSummary{}
		}
	}

	return rawSummary{
		Notes:               stringMap(generic["notes"]),
		Evaluation:          stringValue(generic["evaluation"]),
		Suitability:         stringValue(generic["suitability"]),
		ReadinessFlag:       stringValue(generic["readiness_flag"]),
		PrinciplesAlignment: stringMap(generic["principles_alignment"]),
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
