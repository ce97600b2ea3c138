// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planttracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "planttracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
	}, []string{"method", "route"})

	// RowsIngested counts rows stored by uploads, by table.
	RowsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planttracker",
		Subsystem: "ingest",
		Name:      "rows_total",
		Help:      "Rows stored by CSV uploads",
	}, []string{"table"})

	// UploadsTotal counts upload attempts by outcome (ok, invalid, error).
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planttracker",
		Subsystem: "ingest",
		Name:      "uploads_total",
		Help:      "CSV upload attempts by outcome",
	}, []string{"outcome"})

	// CacheLookups counts collection detail cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planttracker",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Collection detail cache lookups by result",
	}, []string{"result"})
)

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
