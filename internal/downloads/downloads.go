// Package downloads records who fetched an entry and when.
package downloads

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/abduss/goshare/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Event is one download of an entry.
type Event struct {
	ID           int64     `json:"id"`
	EntryID      string    `json:"entry_id"`
	DownloadedAt time.Time `json:"downloaded_at"`
	ClientIP     string    `json:"client_ip"`
	UserAgent    string    `json:"user_agent"`
}

// Repository stores download events in PostgreSQL.
type Repository struct {
	pool    *pgxpool.Pool
	nowFunc func() time.Time
}

// NewRepository builds a download event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, nowFunc: time.Now}
}

// Record inserts a download event.
func (r *Repository) Record(ctx context.Context, entryID, clientIP, userAgent string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `INSERT INTO downloads (entry_id, downloaded_at, client_ip, user_agent) VALUES ($1, $2, $3, $4);`
	if _, err := r.pool.Exec(ctx, query, entryID, r.nowFunc().UTC(), clientIP, userAgent); err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

// ListByEntry returns the download history of an entry, newest first.
func (r *Repository) ListByEntry(ctx context.Context, entryID string) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, entry_id, downloaded_at, COALESCE(client_ip, ''), COALESCE(user_agent, '')
FROM downloads
WHERE entry_id = $1
ORDER BY downloaded_at DESC;`

	rows, err := r.pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.EntryID, &ev.DownloadedAt, &ev.ClientIP, &ev.UserAgent); err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate downloads: %w", err)
	}
	return events, nil
}

// DeleteByEntry removes every event of an entry.
func (r *Repository) DeleteByEntry(ctx context.Context, entryID string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `DELETE FROM downloads WHERE entry_id = $1;`, entryID); err != nil {
		return fmt.Errorf("delete downloads: %w", err)
	}
	return nil
}

type historyLister interface {
	ListByEntry(ctx context.Context, entryID string) ([]Event, error)
}

type entryChecker interface {
	Exists(ctx context.Context, id string) error
}

// RegisterRoutes mounts the download history endpoint.
func RegisterRoutes(group *gin.RouterGroup, history historyLister, entries entryChecker) {
	group.GET("/entries/:id/downloads", func(c *gin.Context) {
		id := c.Param("id")
		if err := entries.Exists(c.Request.Context(), id); err != nil {
			apperr.Respond(c, err)
			return
		}

		events, err := history.ListByEntry(c.Request.Context(), id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"downloads": events})
	})
}
