package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "courier_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	RouteOptimizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_route_optimizations_total",
		Help: "Route optimization runs by outcome.",
	}, []string{"result"})

	RouteStops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "courier_route_stops",
		Help:    "Number of stops per optimized route.",
		Buckets: []float64{1, 5, 10, 20, 40, 80},
	})

	GeocodeCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_geocode_cache_lookups_total",
		Help: "Geocode cache lookups by outcome.",
	}, []string{"result"})
)

func ObserveOptimization(err error) {
	if err != nil {
		RouteOptimizations.WithLabelValues("error").Inc()
		return
	}
	RouteOptimizations.WithLabelValues("ok").Inc()
}
