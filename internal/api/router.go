package api

import (
	"net/http"

	"courier-route-service/internal/api/handlers"
	"courier-route-service/internal/ports"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies handed to the HTTP layer by the composition root.
type RouterConfig struct {
	Repo               ports.PackageRepository
	Geocoder           ports.Geocoder
	Locations          ports.LocationStore
	CourierID          string
	AverageSpeedKmh    float64
	ClusterRadiusKm    float64
	GeocodeConcurrency int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	pkgHandler := &handlers.PackageHandler{
		Repo:               cfg.Repo,
		Geocoder:           cfg.Geocoder,
		GeocodeConcurrency: cfg.GeocodeConcurrency,
	}
	routeHandler := &handlers.RouteHandler{
		Repo:             cfg.Repo,
		Locations:        cfg.Locations,
		DefaultCourierID: cfg.CourierID,
		AverageSpeedKmh:  cfg.AverageSpeedKmh,
		ClusterRadiusKm:  cfg.ClusterRadiusKm,
	}
	locHandler := &handlers.LocationHandler{
		Store:            cfg.Locations,
		DefaultCourierID: cfg.CourierID,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /packages", pkgHandler.List)
	mux.HandleFunc("POST /packages", pkgHandler.Create)
	mux.HandleFunc("GET /packages/stats", pkgHandler.Stats)
	mux.HandleFunc("GET /packages/ordered", pkgHandler.Ordered)
	mux.HandleFunc("POST /packages/geocode", pkgHandler.Geocode)
	mux.HandleFunc("GET /packages/{tracking}", pkgHandler.Get)
	mux.HandleFunc("DELETE /packages/{tracking}", pkgHandler.Delete)
	mux.HandleFunc("PATCH /packages/{tracking}/status", pkgHandler.UpdateStatus)

	mux.HandleFunc("PUT /location", locHandler.Update)
	mux.HandleFunc("GET /location", locHandler.Current)

	mux.HandleFunc("POST /routes/optimize", routeHandler.Optimize)
	mux.HandleFunc("POST /routes/clusters", routeHandler.Clusters)

	return requestMiddleware(mux)
}
