// Package program holds the static program content the interview agent reads:
// the facts sheet used as FAQ context, the candidate evaluation principles,
// and the default interview script.
package program

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	//go:embed faq.md
	defaultFAQ string

	//go:embed principles.md
	defaultPrinciples string

	//go:embed script.hcl
	defaultScript []byte
)

var (
	ErrDocumentMissing = errors.New("document not found")
	ErrDocumentEmpty   = errors.New("document is empty")
)

// FAQ returns the embedded program facts sheet.
func FAQ() string { return strings.TrimSpace(defaultFAQ) }

// Principles returns the embedded evaluation principles.
func Principles() string { return strings.TrimSpace(defaultPrinciples) }

// LoadDocument reads a Markdown override from path. An empty path selects the
// fallback. A missing file yields the fallback together with ErrDocumentMissing
// so callers can warn; an empty file yields "" and ErrDocumentEmpty.
func LoadDocument(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, fmt.Errorf("%s: %w", path, ErrDocumentMissing)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("%s: %w", path, ErrDocumentEmpty)
	}
	return text, nil
}

var listItemRe = regexp.MustCompile(`^\s*(?:[-*]|\d+\.)\s*(.+)`)

// PrincipleNames extracts every Markdown list item, in document order.
func PrincipleNames(markdown string) []string {
	var names []string
	for _, line := range strings.Split(markdown, "\n") {
		m := listItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if name := strings.TrimSpace(m[1]); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Track is one scheduling variant of the program.
type Track struct {
	Name         string
	HoursPerWeek int
	Weeks        int
}

// Facts is a typed view of the facts sheet.
type Facts struct {
	TuitionUSD      int
	Tracks          []Track
	CohortTimeZones []string
	AdmissionsSteps []string
}

var (
	tuitionRe   = regexp.MustCompile(`(?i)tuition:\s*\$([\d,]+)`)
	trackRe     = regexp.MustCompile(`([A-Z][a-z]+-time)\s*\((\d+)\s*hours per week,\s*(\d+)\s*weeks\)`)
	timeZonesRe = regexp.MustCompile(`(?i)cohort time zones:\s*(.+)`)
	numberedRe  = regexp.MustCompile(`^\s*\d+\.\s*(.+)`)
)

// ParseFacts reads the fields content checks rely on out of the facts sheet.
func ParseFacts(markdown string) (Facts, error) {
	var f Facts

	m := tuitionRe.FindStringSubmatch(markdown)
	if m == nil {
		return f, errors.New("facts: tuition not found")
	}
	tuition, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return f, fmt.Errorf("facts: parse tuition: %w", err)
	}
	f.TuitionUSD = tuition

	for _, tm := range trackRe.FindAllStringSubmatch(markdown, -1) {
		hours, _ := strconv.Atoi(tm[2])
		weeks, _ := strconv.Atoi(tm[3])
		f.Tracks = append(f.Tracks, Track{Name: tm[1], HoursPerWeek: hours, Weeks: weeks})
	}

	if zm := timeZonesRe.FindStringSubmatch(markdown); zm != nil {
		for _, z := range strings.Split(strings.TrimSuffix(strings.TrimSpace(zm[1]), "."), ",") {
			if z = strings.TrimSpace(z); z != "" {
				f.CohortTimeZones = append(f.CohortTimeZones, z)
			}
		}
	}

	inAdmissions := false
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(line, "## ") {
			inAdmissions = strings.EqualFold(strings.TrimSpace(line[3:]), "admissions process")
			continue
		}
		if !inAdmissions {
			continue
		}
		if nm := numberedRe.FindStringSubmatch(line); nm != nil {
			f.AdmissionsSteps = append(f.AdmissionsSteps, strings.TrimSpace(nm[1]))
		}
	}

	return f, nil
}
