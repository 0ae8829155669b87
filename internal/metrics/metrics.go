package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "goshare"

// Upload paths reported by ObserveUpload.
const (
	PathDirect    = "direct"
	PathMultipart = "multipart"
	PathGuest     = "guest"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Committed entries by ingestion path.",
	}, []string{"path"})

	uploadedBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploaded_bytes_total",
		Help:      "Bytes committed by ingestion path.",
	}, []string{"path"})

	multipartParts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "multipart_parts_total",
		Help:      "Acknowledged multipart parts, retries included.",
	})

	sweeps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gc_sweeps_total",
		Help:      "Garbage collection sweeps by outcome.",
	}, []string{"outcome"})

	sweptEntries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gc_deleted_entries_total",
		Help:      "Expired entries removed by the garbage collector.",
	})

	sweepFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gc_entry_failures_total",
		Help:      "Expired entries the garbage collector failed to remove.",
	})

	guestRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guest_rejections_total",
		Help:      "Guest upload batches rejected by reason.",
	}, []string{"reason"})
)

// InitMetrics registers the collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			uploads,
			uploadedBytes,
			multipartParts,
			sweeps,
			sweptEntries,
			sweepFailures,
			guestRejections,
		)
	})
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// Middleware counts requests and records latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveUpload counts one committed entry of size bytes.
func ObserveUpload(path string, size int64) {
	uploads.WithLabelValues(path).Inc()
	if size > 0 {
		uploadedBytes.WithLabelValues(path).Add(float64(size))
	}
}

// ObservePart counts one acknowledged multipart part.
func ObservePart() {
	multipartParts.Inc()
}

// ObserveSweep records the outcome of one garbage collection sweep.
func ObserveSweep(deleted, failures int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	sweeps.WithLabelValues(outcome).Inc()
	sweptEntries.Add(float64(deleted))
	sweepFailures.Add(float64(failures))
}

// ObserveGuestRejection counts a rejected guest batch.
func ObserveGuestRejection(reason string) {
	guestRejections.WithLabelValues(reason).Inc()
}
