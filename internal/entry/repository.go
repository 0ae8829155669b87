package entry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

const entryColumns = `id, filename, content_type, size_bytes, upload_time, expiration_time, note, guest_link_id`

// Repository stores entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new entry repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new entry row.
func (r *Repository) Create(ctx context.Context, e Entry) (Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO entries (id, filename, content_type, size_bytes, upload_time, expiration_time, note, guest_link_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + entryColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		e.ID,
		e.Filename,
		e.ContentType,
		e.Size,
		e.UploadTime,
		e.ExpirationTime,
		e.Note,
		e.GuestLinkID,
	)

	stored, err := scanEntry(row)
	if err != nil {
		return Entry{}, fmt.Errorf("create entry: %w", err)
	}
	return stored, nil
}

// Get fetches a single entry.
func (r *Repository) Get(ctx context.Context, id string) (Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1;`

	e, err := scanEntry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// List returns entries newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + entryColumns + `
FROM entries
ORDER BY upload_time DESC
LIMIT $1 OFFSET $2;`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return collectEntries(rows)
}

// Update overwrites the editable fields of an entry.
func (r *Repository) Update(ctx context.Context, e Entry) (Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE entries
SET filename = $2, note = $3, expiration_time = $4
WHERE id = $1
RETURNING ` + entryColumns + `;`

	updated, err := scanEntry(r.pool.QueryRow(ctx, query, e.ID, e.Filename, e.Note, e.ExpirationTime))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, fmt.Errorf("update entry: %w", err)
	}
	return updated, nil
}

// Delete removes an entry row. Deleting a missing row is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1;`, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// ListExpired returns up to limit entries with an expiration at or before now.
func (r *Repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + entryColumns + `
FROM entries
WHERE expiration_time IS NOT NULL AND expiration_time <= $1
ORDER BY expiration_time ASC
LIMIT $2;`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired entries: %w", err)
	}
	return collectEntries(rows)
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID,
		&e.Filename,
		&e.ContentType,
		&e.Size,
		&e.UploadTime,
		&e.ExpirationTime,
		&e.Note,
		&e.GuestLinkID,
	)
	return e, err
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
