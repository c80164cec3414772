package services

import (
	"math"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/geo"
)

// OptimizeRoute orders targets into a visiting sequence using a greedy nearest-neighbor
// heuristic starting from start.
//
// Targets missing either coordinate are skipped. At each step the unvisited target
// closest to the current position is chosen; on equal distances the one that appears
// first in targets wins. The result carries visit indexes 1..N and never aliases the input.
func OptimizeRoute(targets []domain.DeliveryTarget, start domain.Coordinates) []domain.RouteStop {
	type candidate struct {
		id     string
		coords domain.Coordinates
	}

	valid := make([]candidate, 0, len(targets))
	for _, t := range targets {
		c, ok := t.Coords()
		if !ok {
			continue
		}
		valid = append(valid, candidate{id: t.ID, coords: c})
	}

	stops := make([]domain.RouteStop, 0, len(valid))
	if len(valid) == 0 {
		return stops
	}

	visited := make([]bool, len(valid))
	current := start

	for len(stops) < len(valid) {
		best := -1
		minDistance := math.Inf(1)

		// Strict comparison keeps the first-encountered target on ties.
		for i, c := range valid {
			if visited[i] {
				continue
			}
			if d := geo.HaversineKm(current, c.coords); d < minDistance || best == -1 {
				minDistance = d
				best = i
			}
		}

		visited[best] = true
		next := valid[best]
		stops = append(stops, domain.RouteStop{
			ID:         next.id,
			VisitIndex: len(stops) + 1,
			Lat:        next.coords.Lat,
			Lon:        next.coords.Lon,
		})
		current = next.coords
	}

	return stops
}
