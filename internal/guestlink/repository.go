package guestlink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

const linkColumns = `id, label, max_file_bytes, max_file_lifetime_days, max_file_uploads, url_expires, created_time, upload_count`

// Repository stores guest links in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a guest link repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new link.
func (r *Repository) Create(ctx context.Context, l Link) (Link, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO guest_links (id, label, max_file_bytes, max_file_lifetime_days, max_file_uploads, url_expires, created_time, upload_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
RETURNING ` + linkColumns + `;`

	stored, err := scanLink(r.pool.QueryRow(ctx, query,
		l.ID,
		l.Label,
		l.MaxFileBytes,
		l.MaxFileLifetimeDays,
		l.MaxFileUploads,
		l.URLExpires,
		l.CreatedTime,
	))
	if err != nil {
		return Link{}, fmt.Errorf("create guest link: %w", err)
	}
	return stored, nil
}

// Get fetches a link by id.
func (r *Repository) Get(ctx context.Context, id string) (Link, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	l, err := scanLink(r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM guest_links WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, ErrLinkNotFound
		}
		return Link{}, fmt.Errorf("get guest link: %w", err)
	}
	return l, nil
}

// List returns every link, newest first.
func (r *Repository) List(ctx context.Context) ([]Link, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+linkColumns+` FROM guest_links ORDER BY created_time DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list guest links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guest link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guest links: %w", err)
	}
	return links, nil
}

// Delete removes a link. Entries uploaded through it keep their guest_link_id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM guest_links WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete guest link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// IncrementUploadCount adds n to the link's upload count in a single update.
func (r *Repository) IncrementUploadCount(ctx context.Context, id string, n int) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `UPDATE guest_links SET upload_count = upload_count + $2 WHERE id = $1;`, id, n); err != nil {
		return fmt.Errorf("increment guest link upload count: %w", err)
	}
	return nil
}

func scanLink(row pgx.Row) (Link, error) {
	var l Link
	err := row.Scan(
		&l.ID,
		&l.Label,
		&l.MaxFileBytes,
		&l.MaxFileLifetimeDays,
		&l.MaxFileUploads,
		&l.URLExpires,
		&l.CreatedTime,
		&l.UploadCount,
	)
	return l, err
}
