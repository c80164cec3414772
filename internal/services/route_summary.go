package services

import (
	"math"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/geo"
)

// Assumed urban courier speed used for time estimates.
const DefaultAverageSpeedKmh = 30.0

// TotalDistanceKm sums the leg distances from start through every stop in order.
func TotalDistanceKm(start domain.Coordinates, stops []domain.RouteStop) float64 {
	total := 0.0
	current := start
	for _, s := range stops {
		next := s.Coords()
		total += geo.HaversineKm(current, next)
		current = next
	}
	return total
}

// EstimateMinutes converts a distance into whole minutes at the given average speed,
// rounding up. A non-positive speed uses DefaultAverageSpeedKmh.
func EstimateMinutes(totalDistanceKm, averageSpeedKmh float64) int {
	if averageSpeedKmh <= 0 {
		averageSpeedKmh = DefaultAverageSpeedKmh
	}
	if totalDistanceKm <= 0 {
		return 0
	}
	return int(math.Ceil(totalDistanceKm / averageSpeedKmh * 60))
}

// Summarize computes the aggregate metrics of an ordered route.
func Summarize(start domain.Coordinates, stops []domain.RouteStop, averageSpeedKmh float64) domain.RouteSummary {
	total := TotalDistanceKm(start, stops)
	return domain.RouteSummary{
		Stops:            len(stops),
		TotalDistanceKm:  total,
		EstimatedMinutes: EstimateMinutes(total, averageSpeedKmh),
	}
}
