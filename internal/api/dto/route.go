package dto

type Coordinates struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

type OptimizeRouteRequest struct {
	// Starting point; the courier's last reported location when omitted.
	Start           *Coordinates `json:"start"`
	CourierID       string       `json:"courier_id" validate:"omitempty,max=64"`
	AverageSpeedKmh float64      `json:"average_speed_kmh" validate:"omitempty,gt=0,lte=200"`
}

type RouteStopResponse struct {
	TrackingNumber string  `json:"tracking_number"`
	VisitIndex     int     `json:"visit_index"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
}

type RouteSummaryResponse struct {
	Stops            int     `json:"stops"`
	TotalDistanceKm  float64 `json:"total_distance_km"`
	EstimatedMinutes int     `json:"estimated_minutes"`
}

type PointResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type OptimizeRouteResponse struct {
	Start   PointResponse        `json:"start"`
	Stops   []RouteStopResponse  `json:"stops"`
	Summary RouteSummaryResponse `json:"summary"`
	Skipped []string             `json:"skipped"`
}

type ClusterRequest struct {
	RadiusKm float64 `json:"radius_km" validate:"omitempty,gt=0,lte=100"`
}

type ClusterMemberResponse struct {
	TrackingNumber string  `json:"tracking_number"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
}

type ClustersResponse struct {
	RadiusKm float64                   `json:"radius_km"`
	Clusters [][]ClusterMemberResponse `json:"clusters"`
}
