package geocoding

import (
	"context"
	"sync"

	"courier-route-service/internal/domain"

	"github.com/rs/zerolog/log"
)

// Development fallback position (Azadi Square, Tehran).
var DefaultFixedCoords = domain.Coordinates{Lat: 35.6892, Lon: 51.389}

// FixedGeocoder answers every lookup with the same coordinates.
// It stands in for a real provider when no API key is configured.
type FixedGeocoder struct {
	Coords domain.Coordinates
	once   sync.Once
}

func NewFixedGeocoder(c domain.Coordinates) *FixedGeocoder {
	return &FixedGeocoder{Coords: c}
}

func (f *FixedGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	f.once.Do(func() {
		log.Warn().Msg("geocoding API key not configured, returning fixed development coordinates")
	})
	return f.Coords, nil
}
