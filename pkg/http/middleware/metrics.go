package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	applogger "MacroPulse/pkg/logger"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "macropulse_http_requests_total",
			Help: "HTTP requests by route, method, and status",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "macropulse_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"route", "method", "class"},
	)

	httpInFlightRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "macropulse_http_in_flight_requests",
			Help: "HTTP requests currently being served",
		},
		[]string{"route", "method"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "macropulse_http_response_size_bytes",
			Help:    "HTTP response body size in bytes",
			Buckets: []float64{200, 500, 1000, 2000, 5000, 10000, 50000, 100000, 500000, 1000000},
		},
		[]string{"route", "method", "class"},
	)
)

// Metrics records per-request counters, latency, and response size.
// Requests are labeled with the route template
// (/api/indicators/:series_id/scorecard), not the raw URL path, which
// keeps label cardinality bounded. Responses
// with a 5xx status log at error level; anything slower than slowThreshold
// logs a warning.
func Metrics(lgr *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			method := c.Request().Method

			httpInFlightRequests.WithLabelValues(route, method).Inc()
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)
			httpInFlightRequests.WithLabelValues(route, method).Dec()

			status := c.Response().Status
			if err != nil {
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					status = httpErr.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			class := statusClass(status)

			httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(route, method, class).Observe(elapsed.Seconds())
			httpResponseSize.WithLabelValues(route, method, class).Observe(float64(c.Response().Size))

			if lgr != nil {
				if status >= http.StatusInternalServerError {
					lgr.Error("http request failed",
						applogger.String("route", route),
						applogger.String("method", method),
						applogger.Int("status", status),
						applogger.Duration("elapsed", elapsed),
					)
				} else if slowThreshold > 0 && elapsed >= slowThreshold {
					lgr.Warn("slow http request",
						applogger.String("route", route),
						applogger.String("method", method),
						applogger.Int("status", status),
						applogger.Duration("elapsed", elapsed),
					)
				}
			}
			return err
		}
	}
}

func statusClass(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
