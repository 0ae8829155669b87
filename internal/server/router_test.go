package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abduss/goshare/internal/auth"
	"github.com/abduss/goshare/internal/blobstore"
	"github.com/abduss/goshare/internal/config"
	"github.com/abduss/goshare/internal/entry"
	"github.com/abduss/goshare/internal/entry/entrytest"
	"github.com/abduss/goshare/internal/gc"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type testEnv struct {
	router *gin.Engine
	store  *entrytest.Store
	blobs  *blobstore.MemoryStore
	auth   *auth.Service
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{MaxUploadBytes: 1 << 20},
		Auth: config.AuthConfig{
			SharedSecret: "letmein",
			TokenSecret:  "token-secret",
			TokenTTL:     time.Hour,
			BcryptCost:   4,
			CookieName:   "goshare_session",
		},
		Retention: config.RetentionConfig{
			DefaultExpirationDays: 30,
			SweepInterval:         time.Minute,
			SweepLimit:            100,
			SweepTimeout:          time.Second,
			SweepOnRequest:        true,
		},
		Guest:   config.GuestConfig{RateLimit: "100-M"},
		Metrics: config.MetricsConfig{PrometheusPath: "/metrics"},
	}
}

func newTestEnv(t *testing.T, cfg config.Config, db Pinger) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := entrytest.NewStore()
	blobs := blobstore.NewMemoryStore()
	entries := entry.NewService(store, blobs, entrytest.NewEvents(), cfg.Retention.DefaultExpirationDays, nil)

	authService, err := auth.NewService(cfg.Auth)
	require.NoError(t, err)

	router, err := NewRouter(Dependencies{
		Config:    cfg,
		DB:        db,
		Blobs:     blobs,
		Auth:      authService,
		Entries:   entries,
		Collector: gc.NewCollector(entries, entries, nil),
		Guard:     gc.NewGuard(cfg.Retention.SweepInterval),
	})
	require.NoError(t, err)

	return &testEnv{router: router, store: store, blobs: blobs, auth: authService}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t, testConfig(), fakePinger{})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestEnv(t, testConfig(), fakePinger{err: errors.New("connection refused")})
	rec = down.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "postgres")
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, testConfig(), fakePinger{})

	rec := env.do(httptest.NewRequest(http.MethodGet, "/v1/entries", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUploadAndPublicDownload(t *testing.T) {
	env := newTestEnv(t, testConfig(), fakePinger{})

	login := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(`{"secret":"letmein"}`))
	login.Header.Set("Content-Type", "application/json")
	rec := env.do(login)
	require.Equal(t, http.StatusOK, rec.Code)

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField(entry.FieldText, "hello from the router"))
	require.NoError(t, w.Close())

	upload := httptest.NewRequest(http.MethodPost, "/v1/entries", body)
	upload.Header.Set("Content-Type", w.FormDataContentType())
	upload.Header.Set("Authorization", "Bearer "+session.Token)
	rec = env.do(upload)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Entries []entry.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Entries, 1)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/e/"+created.Entries[0].ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello from the router", rec.Body.String())
}

func TestRequestTriggersExpirationSweep(t *testing.T) {
	env := newTestEnv(t, testConfig(), fakePinger{})

	past := time.Now().Add(-time.Hour)
	env.store.Put(entry.Entry{ID: "expired001", Filename: "old.txt", ExpirationTime: &past})
	require.NoError(t, env.blobs.Put(context.Background(), "expired001", bytes.NewReader([]byte("x")), 1, "text/plain"))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.False(t, env.store.Has("expired001"))
	_, ok := env.blobs.Bytes("expired001")
	assert.False(t, ok)
}

func TestSweepOnRequestDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Retention.SweepOnRequest = false
	env := newTestEnv(t, cfg, fakePinger{})

	past := time.Now().Add(-time.Hour)
	env.store.Put(entry.Entry{ID: "expired001", Filename: "old.txt", ExpirationTime: &past})

	env.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.True(t, env.store.Has("expired001"))
}

func TestGuestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	_, err := guestRateLimiter("lots")
	require.Error(t, err)

	limit, err := guestRateLimiter("1-M")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/g/:linkID", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/g/abc", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/g/abc", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "E_RATE_LIMITED")
}
