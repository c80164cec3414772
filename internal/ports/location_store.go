package ports

import (
	"context"
	"errors"
	"time"

	"courier-route-service/internal/domain"
)

// Returned when no position has been reported for a courier.
var ErrLocationUnavailable = errors.New("current location unavailable")

// One reported courier position.
type LocationFix struct {
	Coords     domain.Coordinates
	ReportedAt time.Time
}

// Contract for tracking the last reported positions of couriers.
type LocationStore interface {
	UpdateLocation(ctx context.Context, courierID string, fix LocationFix) error
	// Return the most recent fix, or ErrLocationUnavailable.
	CurrentLocation(ctx context.Context, courierID string) (LocationFix, error)
	// Return up to limit most recent fixes, newest first.
	History(ctx context.Context, courierID string, limit int) ([]LocationFix, error)
}
