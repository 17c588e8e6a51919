package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workbrew_search_requests_total",
		Help: "Total number of proximity searches",
	})
	SearchFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workbrew_search_failures_total",
		Help: "Total number of proximity searches that failed on a cell lookup",
	})
	SearchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "workbrew_search_duration_ms",
		Help:    "Proximity search duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	SearchCandidateCells = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "workbrew_search_candidate_cells",
		Help:    "Distinct geohash cells queried per search",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9},
	})
	SearchPrecision = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workbrew_search_precision_total",
		Help: "Searches by selected geohash precision",
	}, []string{"precision"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workbrew_cache_hits_total",
		Help: "Total point lookup cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workbrew_cache_misses_total",
		Help: "Total point lookup cache misses",
	})
	CacheInvalidationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workbrew_cache_invalidations_total",
		Help: "Total point lookup cache invalidations",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workbrew_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workbrew_http_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchFailuresTotal)
	prometheus.MustRegister(SearchDurationMs)
	prometheus.MustRegister(SearchCandidateCells)
	prometheus.MustRegister(SearchPrecision)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheInvalidationsTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPDurationMs)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }

// SinceMs returns the elapsed time in milliseconds.
func SinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// GinMiddleware records request counts and latency by matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDurationMs.WithLabelValues(c.Request.Method, route).Observe(SinceMs(start))
	}
}
