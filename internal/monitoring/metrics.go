package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BooksCreated counts catalog entries created over the process lifetime.
	BooksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "books_created_total",
		Help: "Total number of created books.",
	})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "api_response_duration_seconds",
		Help:    "Duration of API responses.",
		Buckets: prometheus.DefBuckets,
	})
)

// RegisterBooksTotal exposes the current catalog size as a gauge.
// Call once at startup; count is invoked lazily on every scrape.
func RegisterBooksTotal(count func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "books_total",
		Help: "Total number of books in the library.",
	}, count)
}

// RequestDuration observes wall time of each request into the response
// duration histogram.
func RequestDuration() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requestDuration.Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
