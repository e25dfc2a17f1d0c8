package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	prospectsQualified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospects_qualified_total",
			Help: "Prospects qualified, by tier",
		},
		[]string{"tier"},
	)

	assessmentsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_submitted_total",
			Help: "Assessments submitted, by readiness level",
		},
		[]string{"readiness"},
	)

	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Emails handed to the SMTP server, by kind and outcome",
		},
		[]string{"kind", "status"},
	)
)

// Metrics records request counts and latencies per route.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		httpRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// MetricsHandler serves the Prometheus registry.
func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func RecordProspectQualified(tier string) {
	prospectsQualified.WithLabelValues(tier).Inc()
}

func RecordAssessment(readiness string) {
	assessmentsSubmitted.WithLabelValues(readiness).Inc()
}

// RecordEmail counts a send attempt. kind is report, nurture or sales_notification.
func RecordEmail(kind string, ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	emailsSent.WithLabelValues(kind, status).Inc()
}
