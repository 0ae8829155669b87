package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitMetrics()

	r := gin.New()
	r.Use(Middleware())
	r.GET("/e/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/e/:id", "200"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/e/abc", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/e/:id", "200")))
}

func TestRegisterExposesMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitMetrics()

	r := gin.New()
	Register(r, "/metrics")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "goshare_")
}

func TestObserveSweepSplitsOutcomes(t *testing.T) {
	okBefore := testutil.ToFloat64(sweeps.WithLabelValues("ok"))
	failedBefore := testutil.ToFloat64(sweeps.WithLabelValues("failed"))
	deletedBefore := testutil.ToFloat64(sweptEntries)

	ObserveSweep(3, 1, nil)
	ObserveSweep(0, 0, errors.New("list failed"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(sweeps.WithLabelValues("ok")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(sweeps.WithLabelValues("failed")))
	assert.Equal(t, deletedBefore+3, testutil.ToFloat64(sweptEntries))
}
