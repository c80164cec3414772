package geocoding

import (
	"context"
	"errors"
	"fmt"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"

	"github.com/rs/zerolog/log"
)

// CachedGeocoder consults a persistent cache before delegating to the wrapped geocoder.
// Cache keys are normalized addresses; cache write failures are logged, not returned.
type CachedGeocoder struct {
	next  ports.Geocoder
	cache ports.GeocodeCache
}

func NewCachedGeocoder(next ports.Geocoder, cache ports.GeocodeCache) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	if c.next == nil {
		return domain.Coordinates{}, errors.New("cached geocoder: next geocoder is nil")
	}

	key := NormalizeAddress(address)
	if key == "" {
		return domain.Coordinates{}, errors.New("cached geocoder: address must be non-empty")
	}

	if c.cache != nil {
		hits, err := c.cache.GetMany(ctx, []string{key})
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("geocode cache read failed")
		} else if coords, ok := hits[key]; ok {
			obs.GeocodeCacheLookups.WithLabelValues("hit").Inc()
			return coords, nil
		}
		obs.GeocodeCacheLookups.WithLabelValues("miss").Inc()
	}

	coords, err := c.next.Geocode(ctx, key)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("cached geocoder: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.PutMany(ctx, map[string]domain.Coordinates{key: coords}); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("geocode cache write failed")
		}
	}

	return coords, nil
}
