package gc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardOpensOncePerInterval(t *testing.T) {
	g := NewGuard(time.Minute)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, g.TryAcquire(t0), "first call wins")
	assert.False(t, g.TryAcquire(t0.Add(30*time.Second)))
	assert.True(t, g.TryAcquire(t0.Add(time.Minute)))
	assert.False(t, g.TryAcquire(t0.Add(time.Minute+time.Second)))

	g.Reset()
	assert.True(t, g.TryAcquire(t0.Add(time.Minute+2*time.Second)))
}

type stubSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
	ctxOK bool
}

func (s *stubSweeper) Sweep(ctx context.Context, now time.Time, limit int) (SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.ctxOK = ctx.Err() == nil
	return SweepResult{Deleted: 1}, s.err
}

func triggerRouter(s sweeper, g *Guard) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Trigger(s, g, TriggerConfig{Limit: 10, Timeout: time.Second}, nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestTriggerSweepsOncePerInterval(t *testing.T) {
	s := &stubSweeper{}
	r := triggerRouter(s, NewGuard(time.Hour))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, s.calls)
}

func TestTriggerResetsGuardOnHardFailure(t *testing.T) {
	s := &stubSweeper{err: errors.New("db unavailable")}
	r := triggerRouter(s, NewGuard(time.Hour))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, rec.Code, "a failed sweep never fails the request")
	}
	assert.Equal(t, 2, s.calls)
}

func TestRunOnceDetachesFromCanceledRequest(t *testing.T) {
	s := &stubSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	RunOnce(ctx, s, nil, TriggerConfig{Timeout: time.Second}, time.Now(), nil)

	assert.True(t, s.ctxOK)
}
