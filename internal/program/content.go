package program

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/model"
)

// Content is everything the interview needs to run: the question script and
// the two reference documents.
type Content struct {
	Questions  []model.Question
	FAQ        string
	Principles string
}

// Load reads the script and documents named in cfg, falling back to the
// embedded defaults. Missing or empty documents are logged and tolerated;
// a broken script is an error.
func Load(cfg *config.Config, log zerolog.Logger) (*Content, error) {
	questions, err := LoadScript(cfg.ScriptFile, cfg.CompanyName)
	if err != nil {
		return nil, fmt.Errorf("load interview script: %w", err)
	}

	faqText, err := loadDocument(cfg.FAQFile, FAQ(), "FAQ", "answers may be poor", log)
	if err != nil {
		return nil, err
	}
	principles, err := loadDocument(cfg.PrinciplesFile, Principles(), "Principles", "alignment may be poor", log)
	if err != nil {
		return nil, err
	}

	if facts, err := ParseFacts(faqText); err != nil {
		log.Warn().Err(err).Msg("FAQ document is missing expected program facts")
	} else {
		log.Debug().
			Int("tuition_usd", facts.TuitionUSD).
			Int("admissions_steps", len(facts.AdmissionsSteps)).
			Msg("Program facts parsed")
	}

	log.Info().
		Int("questions", len(questions)).
		Int("principles", len(PrincipleNames(principles))).
		Msg("Program content loaded")

	return &Content{Questions: questions, FAQ: faqText, Principles: principles}, nil
}

func loadDocument(path, fallback, name, impact string, log zerolog.Logger) (string, error) {
	text, err := LoadDocument(path, fallback)
	switch {
	case err == nil:
		return text, nil
	case errors.Is(err, ErrDocumentMissing), errors.Is(err, ErrDocumentEmpty):
		log.Warn().Err(err).Str("document", name).Msg(name + " document unusable; " + impact)
		return text, nil
	default:
		return "", fmt.Errorf("load %s: %w", name, err)
	}
}
