package model

// Suitability is the overall reviewer grade for a candidate.
type Suitability string

const (
	SuitabilityStrong  Suitability = "strong"
	SuitabilityAverage Suitability = "average"
	SuitabilityWeak    Suitability = "weak"
)

// Valid reports whether s is one of the known grades.
func (s Suitability) Valid() bool {
	switch s {
	case SuitabilityStrong, SuitabilityAverage, SuitabilityWeak:
		return true
	}
	return false
}

// ReadinessFlag classifies when a candidate can start.
type ReadinessFlag string

const (
	ReadinessReadyNow  ReadinessFlag = "ready_now"
	ReadinessDate      ReadinessFlag = "date"
	ReadinessNeedsPrep ReadinessFlag = "needs_prep"
	ReadinessUnknown   ReadinessFlag = "unknown"
)

// Summary is the structured reviewer summary of a session.
type Summary struct {
	RawAnswers          map[string]string `json:"raw_answers"`
	Notes               map[string]string `json:"notes"`
	Evaluation          string            `json:"evaluation"`
	Suitability         Suitability       `json:"suitability"`
	ReadinessFlag       ReadinessFlag     `json:"readiness_flag"`
	PrinciplesAlignment map[string]string `json:"principles_alignment"`
	FAQMarkdown         string            `json:"faq_markdown,omitempty"`
}
