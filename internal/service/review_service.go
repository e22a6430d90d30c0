package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stemsi/interview-agent/internal/repository"
)

// SessionArchive reads archived sessions.
type SessionArchive interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ArchivedSession, error)
	List(ctx context.Context, page, perPage int) ([]model.ArchivedSessionListItem, int, error)
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ReviewService serves archived interviews to reviewers.
type ReviewService struct {
	archive SessionArchive
	log     zerolog.Logger
}

func NewReviewService(archive SessionArchive, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		archive: archive,
		log:     log.With().Str("component", "review_service").Logger(),
	}
}

// NormalizePage clamps page and perPage to usable bounds.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// List returns a page of archived sessions and the total count.
func (s *ReviewService) List(ctx context.Context, page, perPage int) ([]model.ArchivedSessionListItem, int, error) {
	page, perPage = NormalizePage(page, perPage)

	items, total, err := s.archive.List(ctx, page, perPage)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list sessions")
		return nil, 0, err
	}
	if items == nil {
		items = []model.ArchivedSessionListItem{}
	}
	return items, total, nil
}

// Get returns one archived session.
func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*model.ArchivedSession, error) {
	sess, err := s.archive.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}
