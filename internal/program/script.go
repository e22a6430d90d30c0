package program

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/zclconf/go-cty/cty"
)

type scriptFile struct {
	Questions []questionBlock `hcl:"question,block"`
}

type questionBlock struct {
	Key     string   `hcl:"key,label"`
	Label   string   `hcl:"label,optional"`
	Text    string   `hcl:"text"`
	Aliases []string `hcl:"aliases,optional"`
}

// LoadScript decodes the interview script at path, or the embedded default
// script when path is empty. ${company} in any string is replaced with
// company.
func LoadScript(path, company string) ([]model.Question, error) {
	filename := "script.hcl"
	src := defaultScript
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read script: %w", err)
		}
		filename, src = path, raw
	}
	return ParseScript(filename, src, company)
}

// ParseScript decodes HCL script source. filename is used in diagnostics.
func ParseScript(filename string, src []byte, company string) ([]model.Question, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse script %s: %w", filename, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"company": cty.StringVal(company),
		},
	}

	var file scriptFile
	if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &file); diags.HasErrors() {
		return nil, fmt.Errorf("decode script %s: %w", filename, diags)
	}

	if len(file.Questions) == 0 {
		return nil, errors.New("script has no questions")
	}

	seen := make(map[string]bool, len(file.Questions))
	questions := make([]model.Question, 0, len(file.Questions))
	for _, b := range file.Questions {
		if seen[b.Key] {
			return nil, fmt.Errorf("script: duplicate question key %q", b.Key)
		}
		seen[b.Key] = true

		label := b.Label
		if label == "" {
			label = b.Key
		}
		questions = append(questions, model.Question{
			Key:     b.Key,
			Label:   label,
			Text:    b.Text,
			Aliases: b.Aliases,
		})
	}
	return questions, nil
}
