package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Permanently/sessionbook/internal/domain"
)

// SessionRepo is the persistence gateway over the sessions table. The
// event stream is stored in its compressed codec form; this repo never
// decompresses it.
type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Fetch(ctx context.Context, id string, owner domain.OwnerScope) (*domain.SessionRecord, error) {
	var (
		rec        domain.SessionRecord
		visibility string
	)

	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, page_url, visibility, created_by, duration_ms, created_at, updated_at, events
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(
		&rec.ID, &rec.OwnerID, &rec.Metadata.Name, &rec.Metadata.PageURL, &visibility,
		&rec.Metadata.CreatedBy, &rec.Metadata.DurationMs, &rec.Metadata.CreatedAt,
		&rec.Metadata.UpdatedAt, &rec.CompressedEvents,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sessionRepo.Fetch: %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.Fetch: scan: %v: %w", err, domain.ErrMalformedData)
	}

	rec.Metadata.Visibility = domain.Visibility(visibility)
	if !rec.Metadata.Visibility.Valid() {
		return nil, fmt.Errorf("sessionRepo.Fetch: stored visibility %q: %w", visibility, domain.ErrMalformedData)
	}

	// Private sessions are owner-only; public and unlisted are fetchable
	// by anyone holding the id.
	if rec.Metadata.Visibility == domain.VisibilityPrivate && rec.OwnerID != owner.OwnerID() {
		return nil, fmt.Errorf("sessionRepo.Fetch: %s: %w", id, domain.ErrPermissionDenied)
	}

	return &rec, nil
}

func (r *SessionRepo) Save(ctx context.Context, s *domain.Session, compressedEvents []byte, owner domain.OwnerScope) (string, error) {
	id := s.ID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	createdAt := s.Metadata.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	// Re-saving an existing id updates metadata only when the row belongs
	// to the caller's scope; a conflicting row owned by someone else is a
	// permission failure, not an overwrite.
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, owner_id, name, page_url, visibility, created_by, duration_ms, created_at, updated_at, events)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, visibility = EXCLUDED.visibility, updated_at = EXCLUDED.updated_at
		 WHERE sessions.owner_id = EXCLUDED.owner_id`,
		id, owner.OwnerID(), s.Metadata.Name, s.Metadata.PageURL, string(s.Metadata.Visibility),
		s.Metadata.CreatedBy, s.Metadata.DurationMs, createdAt, now, compressedEvents,
	)
	if err != nil {
		return "", fmt.Errorf("sessionRepo.Save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("sessionRepo.Save: %s owned by another scope: %w", id, domain.ErrPermissionDenied)
	}

	return id, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string, owner domain.OwnerScope) error {
	var ownerID string

	err := r.pool.QueryRow(ctx, `SELECT owner_id FROM sessions WHERE id = $1`, id).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("sessionRepo.Delete: %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("sessionRepo.Delete: %w", err)
	}

	if ownerID != owner.OwnerID() {
		return fmt.Errorf("sessionRepo.Delete: %s: %w", id, domain.ErrPermissionDenied)
	}

	_, err = r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("sessionRepo.Delete: %w", err)
	}

	return nil
}

func (r *SessionRepo) ListSummaries(ctx context.Context, owner domain.OwnerScope, limit int) ([]domain.SessionSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, duration_ms, created_at, page_url, visibility, created_by, updated_at
		 FROM sessions WHERE owner_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		owner.OwnerID(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.ListSummaries: %w", err)
	}
	defer rows.Close()

	summaries := []domain.SessionSummary{}
	for rows.Next() {
		var (
			sum        domain.SessionSummary
			visibility string
		)

		err = rows.Scan(&sum.ID, &sum.Name, &sum.DurationMs, &sum.StartTime, &sum.URL, &visibility, &sum.CreatedBy, &sum.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("sessionRepo.ListSummaries: scan: %w", err)
		}
		sum.Visibility = domain.Visibility(visibility)
		summaries = append(summaries, sum)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sessionRepo.ListSummaries: rows: %w", err)
	}

	return summaries, nil
}
