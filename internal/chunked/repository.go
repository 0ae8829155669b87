package chunked

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository persists multipart sessions and their parts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a session repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateSession stores a new session row.
func (r *Repository) CreateSession(ctx context.Context, s Session) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO multipart_uploads (upload_id, entry_id, filename, content_type, declared_size, expiration_time, note, guest_link_id, created_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	_, err := r.pool.Exec(ctx, query,
		s.UploadID,
		s.EntryID,
		s.Filename,
		s.ContentType,
		s.DeclaredSize,
		s.ExpirationTime,
		s.Note,
		s.GuestLinkID,
		s.CreatedTime,
	)
	if err != nil {
		return fmt.Errorf("create upload session: %w", err)
	}
	return nil
}

// GetSession loads a session by upload id.
func (r *Repository) GetSession(ctx context.Context, uploadID string) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT upload_id, entry_id, filename, content_type, declared_size, expiration_time, note, guest_link_id, created_time
FROM multipart_uploads
WHERE upload_id = $1;`

	var s Session
	err := r.pool.QueryRow(ctx, query, uploadID).Scan(
		&s.UploadID,
		&s.EntryID,
		&s.Filename,
		&s.ContentType,
		&s.DeclaredSize,
		&s.ExpirationTime,
		&s.Note,
		&s.GuestLinkID,
		&s.CreatedTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("get upload session: %w", err)
	}
	return s, nil
}

// UpsertPart records the etag of a part, replacing the etag of an earlier attempt.
func (r *Repository) UpsertPart(ctx context.Context, uploadID string, partNumber int, etag string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO multipart_upload_parts (upload_id, part_number, etag)
VALUES ($1, $2, $3)
ON CONFLICT (upload_id, part_number) DO UPDATE SET etag = EXCLUDED.etag;`

	if _, err := r.pool.Exec(ctx, query, uploadID, partNumber, etag); err != nil {
		return fmt.Errorf("upsert part: %w", err)
	}
	return nil
}

// ListParts returns the acknowledged parts ordered by part number.
func (r *Repository) ListParts(ctx context.Context, uploadID string) ([]Part, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT part_number, etag
FROM multipart_upload_parts
WHERE upload_id = $1
ORDER BY part_number ASC;`

	rows, err := r.pool.Query(ctx, query, uploadID)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	var parts []Part
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.PartNumber, &p.ETag); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		parts = append(parts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parts: %w", err)
	}
	return parts, nil
}

// DeleteSession removes the parts and then the session row. Missing rows are not an error.
func (r *Repository) DeleteSession(ctx context.Context, uploadID string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `DELETE FROM multipart_upload_parts WHERE upload_id = $1;`, uploadID); err != nil {
		return fmt.Errorf("delete parts: %w", err)
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM multipart_uploads WHERE upload_id = $1;`, uploadID); err != nil {
		return fmt.Errorf("delete upload session: %w", err)
	}
	return nil
}
