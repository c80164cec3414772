package handlers

import (
	"net/http"
	"strings"

	"courier-route-service/internal/api/dto"
	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
	"courier-route-service/internal/services"
)

type RouteHandler struct {
	Repo             ports.PackageRepository
	Locations        ports.LocationStore
	DefaultCourierID string
	AverageSpeedKmh  float64
	ClusterRadiusKm  float64
}

// Optimize orders the pending packages from the given or last reported position
// and stores the resulting visit indexes.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeRouteRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	svcReq := services.OptimizeDeliveriesRequest{
		CourierID:       courierOrDefault(req.CourierID, h.DefaultCourierID),
		AverageSpeedKmh: h.AverageSpeedKmh,
	}
	if req.AverageSpeedKmh > 0 {
		svcReq.AverageSpeedKmh = req.AverageSpeedKmh
	}
	if req.Start != nil {
		svcReq.Start = &domain.Coordinates{Lat: *req.Start.Lat, Lon: *req.Start.Lon}
	}

	res, err := services.OptimizeDeliveries(r.Context(), svcReq, h.Repo, h.Locations)
	if err != nil {
		writeServiceError(w, r, "optimize route", err)
		return
	}

	stops := make([]dto.RouteStopResponse, 0, len(res.Stops))
	for _, s := range res.Stops {
		stops = append(stops, dto.RouteStopResponse{
			TrackingNumber: s.ID,
			VisitIndex:     s.VisitIndex,
			Lat:            s.Lat,
			Lon:            s.Lon,
		})
	}

	writeJSON(w, r, http.StatusOK, dto.OptimizeRouteResponse{
		Start: dto.PointResponse{Lat: res.Start.Lat, Lon: res.Start.Lon},
		Stops: stops,
		Summary: dto.RouteSummaryResponse{
			Stops:            res.Summary.Stops,
			TotalDistanceKm:  res.Summary.TotalDistanceKm,
			EstimatedMinutes: res.Summary.EstimatedMinutes,
		},
		Skipped: res.Skipped,
	})
}

// Clusters groups pending packages by proximity to seed packages.
func (h *RouteHandler) Clusters(w http.ResponseWriter, r *http.Request) {
	var req dto.ClusterRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	radius := h.ClusterRadiusKm
	if req.RadiusKm > 0 {
		radius = req.RadiusKm
	}
	if radius <= 0 {
		radius = services.DefaultClusterRadiusKm
	}

	clusters, err := services.ClusterPending(r.Context(), h.Repo, radius)
	if err != nil {
		writeServiceError(w, r, "cluster packages", err)
		return
	}

	res := dto.ClustersResponse{RadiusKm: radius, Clusters: make([][]dto.ClusterMemberResponse, 0, len(clusters))}
	for _, c := range clusters {
		members := make([]dto.ClusterMemberResponse, 0, len(c))
		for _, t := range c {
			coords, _ := t.Coords()
			members = append(members, dto.ClusterMemberResponse{
				TrackingNumber: t.ID,
				Lat:            coords.Lat,
				Lon:            coords.Lon,
			})
		}
		res.Clusters = append(res.Clusters, members)
	}

	writeJSON(w, r, http.StatusOK, res)
}

func courierOrDefault(id, fallback string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return fallback
}
