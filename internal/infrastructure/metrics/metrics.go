package metrics

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for inline item images
const (
	ImageStored  = "stored"
	ImageInvalid = "invalid"
	ImageFailed  = "failed"
)

// Outcomes recorded for blob deletions
const (
	DeleteOK     = "deleted"
	DeleteFailed = "failed"
)

// Metrics holds the application's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	itemImages      *prometheus.CounterVec
	blobDeletes     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		itemImages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remindly_item_images_total",
				Help: "Inline item images processed, by outcome",
			},
			[]string{"outcome"},
		),
		blobDeletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remindly_blob_deletes_total",
				Help: "Stored file deletions, by namespace and outcome",
			},
			[]string{"namespace", "outcome"},
		),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.itemImages, m.blobDeletes)
	return m
}

// ItemImage counts one processed inline image
func (m *Metrics) ItemImage(outcome string) {
	if m == nil {
		return
	}
	m.itemImages.WithLabelValues(outcome).Inc()
}

// BlobDelete counts one stored file deletion attempt
func (m *Metrics) BlobDelete(namespace, outcome string) {
	if m == nil {
		return
	}
	m.blobDeletes.WithLabelValues(namespace, outcome).Inc()
}

// Middleware records request count and latency per route
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			m.requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			m.requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	}
}
