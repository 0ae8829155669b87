package gc

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type sweeper interface {
	Sweep(ctx context.Context, now time.Time, limit int) (SweepResult, error)
}

// TriggerConfig parameterizes request-piggybacked sweeps.
type TriggerConfig struct {
	Limit   int
	Timeout time.Duration
}

// Trigger returns middleware that runs a sweep at the start of a request when the
// guard allows it. The sweep uses a context detached from the client so a dropped
// connection does not cut it short. A failed sweep resets the guard.
func Trigger(s sweeper, guard *Guard, cfg TriggerConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		if guard.TryAcquire(now) {
			RunOnce(c.Request.Context(), s, guard, cfg, now, logger)
		}
		c.Next()
	}
}

// RunOnce performs one sweep and logs its outcome.
func RunOnce(parent context.Context, s sweeper, guard *Guard, cfg TriggerConfig, now time.Time, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := context.WithoutCancel(parent)
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	result, err := s.Sweep(ctx, now, cfg.Limit)
	if err != nil {
		if guard != nil {
			guard.Reset()
		}
		logger.Error("expiration sweep failed", zap.Error(err))
		return
	}

	if result.Deleted > 0 || len(result.Failures) > 0 {
		logger.Info("expiration sweep finished",
			zap.Int("deleted", result.Deleted),
			zap.Int("failed", len(result.Failures)),
		)
	}
}
