package model

import "time"

// ArchivedSession is a finished interview as stored for reviewers.
type ArchivedSession struct {
	ID              string            `json:"id"`
	Answers         map[string]string `json:"answers"`
	Turns           []Turn            `json:"turns"`
	FAQ             []FAQPair         `json:"faq"`
	Summary         *Summary          `json:"summary"`
	SummaryMarkdown string            `json:"summary_markdown"`
	Suitability     Suitability       `json:"suitability"`
	ReadinessFlag   ReadinessFlag     `json:"readiness_flag"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ArchivedSessionListItem is the condensed row shown in reviewer listings.
type ArchivedSessionListItem struct {
	ID            string        `json:"id"`
	Suitability   Suitability   `json:"suitability"`
	ReadinessFlag ReadinessFlag `json:"readiness_flag"`
	CreatedAt     time.Time     `json:"created_at"`
}
