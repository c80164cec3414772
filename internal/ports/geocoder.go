package ports

import (
	"context"
	"errors"

	"courier-route-service/internal/domain"
)

var ErrAddressNotFound = errors.New("address not found")

// Contract for resolving a postal address into coordinates.
type Geocoder interface {
	// Return coordinates for an address, or ErrAddressNotFound.
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
