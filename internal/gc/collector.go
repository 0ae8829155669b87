// Package gc removes expired entries from both the blob store and the metadata store.
package gc

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/goshare/internal/entry"
	"github.com/abduss/goshare/internal/metrics"
	"go.uber.org/zap"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

type expiredLister interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]entry.Entry, error)
}

type purger interface {
	Purge(ctx context.Context, e entry.Entry) error
}

// Failure is an expired entry that could not be removed during a sweep.
type Failure struct {
	EntryID string
	Err     error
}

// SweepResult summarizes one sweep. Failures do not stop the sweep; the entries
// stay expired and are picked up again by a later sweep.
type SweepResult struct {
	Deleted  int
	Failures []Failure
}

// Collector runs bounded sweeps over expired entries.
type Collector struct {
	entries expiredLister
	purger  purger
	logger  *zap.Logger
}

// NewCollector builds a collector. entry.Service satisfies both dependencies.
func NewCollector(entries expiredLister, p purger, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{entries: entries, purger: p, logger: logger}
}

// ClampLimit applies the default to 0 and bounds limit to [1, MaxLimit].
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Sweep deletes up to limit entries whose expiration is at or before now, soonest first.
// Only a failure to list expired entries is returned as an error.
func (c *Collector) Sweep(ctx context.Context, now time.Time, limit int) (SweepResult, error) {
	expired, err := c.entries.ListExpired(ctx, now, ClampLimit(limit))
	if err != nil {
		metrics.ObserveSweep(0, 0, err)
		return SweepResult{}, fmt.Errorf("list expired entries: %w", err)
	}

	var result SweepResult
	for _, e := range expired {
		if err := c.purger.Purge(ctx, e); err != nil {
			c.logger.Warn("purge expired entry", zap.String("entry_id", e.ID), zap.Error(err))
			result.Failures = append(result.Failures, Failure{EntryID: e.ID, Err: err})
			continue
		}
		result.Deleted++
	}

	metrics.ObserveSweep(result.Deleted, len(result.Failures), nil)
	return result, nil
}
