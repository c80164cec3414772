package ports

import (
	"context"

	"courier-route-service/internal/domain"
)

// Persistent address -> coordinates cache consulted before calling a Geocoder.
// Keys are normalized addresses.
type GeocodeCache interface {
	// Return the cached subset of addresses; misses are simply absent from the map.
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
