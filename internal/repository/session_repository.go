package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/interview-agent/internal/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// SessionRepository stores finished interviews for reviewers.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Insert stores an archived session. Re-inserting the same ID is a no-op so
// the archive worker can retry safely.
func (r *SessionRepository) Insert(ctx context.Context, s *model.ArchivedSession) error {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return fmt.Errorf("parse session id: %w", err)
	}

	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	turns, err := json.Marshal(s.Turns)
	if err != nil {
		return fmt.Errorf("encode turns: %w", err)
	}
	faq, err := json.Marshal(s.FAQ)
	if err != nil {
		return fmt.Errorf("encode faq: %w", err)
	}
	summary, err := json.Marshal(s.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO interview_sessions
		   (id, answers, turns, faq, summary, summary_markdown, suitability, readiness_flag, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		id, answers, turns, faq, summary, s.SummaryMarkdown,
		string(s.Suitability), string(s.ReadinessFlag), s.CreatedAt,
	)
	return err
}

// GetByID returns one archived session.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ArchivedSession, error) {
	var (
		s                            model.ArchivedSession
		sid                          uuid.UUID
		answers, turns, faq, summary []byte
		suitability, readinessFlag   string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, answers, turns, faq, summary, summary_markdown, suitability, readiness_flag, created_at
		 FROM interview_sessions WHERE id = $1`, id,
	).Scan(&sid, &answers, &turns, &faq, &summary, &s.SummaryMarkdown, &suitability, &readinessFlag, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.ID = sid.String()
	s.Suitability = model.Suitability(suitability)
	s.ReadinessFlag = model.ReadinessFlag(readinessFlag)

	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal(turns, &s.Turns); err != nil {
		return nil, fmt.Errorf("decode turns: %w", err)
	}
	if err := json.Unmarshal(faq, &s.FAQ); err != nil {
		return nil, fmt.Errorf("decode faq: %w", err)
	}
	if err := json.Unmarshal(summary, &s.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &s, nil
}

// List returns a page of archived sessions, newest first, and the total count.
func (r *SessionRepository) List(ctx context.Context, page, perPage int) ([]model.ArchivedSessionListItem, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM interview_sessions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, suitability, readiness_flag, created_at
		 FROM interview_sessions
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []model.ArchivedSessionListItem
	for rows.Next() {
		var (
			item                       model.ArchivedSessionListItem
			id                         uuid.UUID
			suitability, readinessFlag string
		)
		if err := rows.Scan(&id, &suitability, &readinessFlag, &item.CreatedAt); err != nil {
			return nil, 0, err
		}
		item.ID = id.String()
		item.Suitability = model.Suitability(suitability)
		item.ReadinessFlag = model.ReadinessFlag(readinessFlag)
		items = append(items, item)
	}
	return items, total, rows.Err()
}
