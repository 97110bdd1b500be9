package server

import (
	"strconv"
	"time"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/sync"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requestLogger logs every request and its outcome
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		res := c.Response()

		err := next(c)
		if err != nil {
			// let the error handler write the status before we log it
			c.Error(err)
		}

		fields := []logger.Field{
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
			logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
		}
		if sid := req.Header.Get(sync.SessionHeader); sid != "" {
			fields = append(fields, logger.F("session", sid))
		}
		if err != nil {
			fields = append(fields, logger.F("error", err))
			logger.Warn("HTTP request failed", fields...)
			return nil
		}
		logger.Info("HTTP request", fields...)
		return nil
	}
}

type metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	pushes      *prometheus.CounterVec
	suggestions *prometheus.CounterVec
	tasks       prometheus.Gauge
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		pushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_snapshot_pushes_total",
				Help: "Snapshot uploads by outcome",
			},
			[]string{"result"},
		),
		suggestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_suggestions_total",
				Help: "Suggestion requests by outcome",
			},
			[]string{"result"},
		),
		tasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskdeck_tasks",
			Help: "Number of tasks in the stored snapshot",
		}),
	}
	registry.MustRegister(m.requests, m.duration, m.pushes, m.suggestions, m.tasks)
	return m
}

func (m *metrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		req := c.Request()
		m.requests.WithLabelValues(req.Method, c.Path(), strconv.Itoa(c.Response().Status)).Inc()
		m.duration.WithLabelValues(req.Method, c.Path()).Observe(time.Since(start).Seconds())
		return err
	}
}

func (m *metrics) handler(registry *prometheus.Registry) echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
