package model

// Question is one required interview question.
type Question struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Text    string   `json:"text"`
	Aliases []string `json:"aliases,omitempty"`
}
