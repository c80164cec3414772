package services

import (
	"context"
	"errors"
	"fmt"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"

	"github.com/rs/zerolog/log"
)

var (
	// No pending package with known coordinates exists.
	ErrNothingToOptimize = errors.New("nothing to optimize")
	// The courier's starting position could not be determined.
	ErrLocationUnavailable = errors.New("could not determine current location")
	ErrInvalidStart        = errors.New("invalid start position")
)

type OptimizeDeliveriesRequest struct {
	CourierID string
	// Explicit starting position; when nil the last tracked location is used.
	Start           *domain.Coordinates
	AverageSpeedKmh float64
}

type OptimizeDeliveriesResult struct {
	Start   domain.Coordinates
	Stops   []domain.RouteStop
	Summary domain.RouteSummary
	// Pending packages left out because they have no coordinates.
	Skipped []string
}

// OptimizeDeliveries orders the courier's pending packages and persists the visit order.
//
// The starting position is resolved before the optimizer runs; if it cannot be obtained
// the optimizer is never invoked. Visit indexes are written back through the repository
// in one batch.
func OptimizeDeliveries(
	ctx context.Context,
	req OptimizeDeliveriesRequest,
	repo ports.PackageRepository,
	locations ports.LocationStore,
) (_ *OptimizeDeliveriesResult, err error) {
	defer obs.Time(ctx, "services.OptimizeDeliveries")(&err)
	defer func() { obs.ObserveOptimization(err) }()

	pending, err := repo.ListPackages(ctx, ports.PackageFilter{Status: domain.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("optimize deliveries: list pending packages: %w", err)
	}
	if len(pending) == 0 {
		return nil, ErrNothingToOptimize
	}

	start, err := resolveStart(ctx, req, locations)
	if err != nil {
		return nil, err
	}

	targets := make([]domain.DeliveryTarget, 0, len(pending))
	skipped := make([]string, 0)
	for _, pkg := range pending {
		if !pkg.HasCoords() {
			skipped = append(skipped, pkg.TrackingNumber)
		}
		targets = append(targets, pkg.Target())
	}

	stops := OptimizeRoute(targets, start)
	if len(stops) == 0 {
		return nil, ErrNothingToOptimize
	}

	assignments := make([]domain.VisitAssignment, 0, len(stops))
	for _, s := range stops {
		assignments = append(assignments, domain.VisitAssignment{TrackingNumber: s.ID, VisitIndex: s.VisitIndex})
	}
	if err := repo.UpdateVisitOrder(ctx, assignments); err != nil {
		return nil, fmt.Errorf("optimize deliveries: persist visit order: %w", err)
	}

	summary := Summarize(start, stops, req.AverageSpeedKmh)
	obs.RouteStops.Observe(float64(summary.Stops))

	log.Ctx(ctx).Info().
		Int("stops", summary.Stops).
		Int("skipped", len(skipped)).
		Float64("distance_km", summary.TotalDistanceKm).
		Int("eta_min", summary.EstimatedMinutes).
		Msg("route optimized")

	return &OptimizeDeliveriesResult{
		Start:   start,
		Stops:   stops,
		Summary: summary,
		Skipped: skipped,
	}, nil
}

func resolveStart(ctx context.Context, req OptimizeDeliveriesRequest, locations ports.LocationStore) (domain.Coordinates, error) {
	if req.Start != nil {
		if err := req.Start.Validate(); err != nil {
			return domain.Coordinates{}, fmt.Errorf("%w: %v", ErrInvalidStart, err)
		}
		return *req.Start, nil
	}

	if locations == nil {
		return domain.Coordinates{}, ErrLocationUnavailable
	}

	fix, err := locations.CurrentLocation(ctx, req.CourierID)
	if err != nil {
		if !errors.Is(err, ports.ErrLocationUnavailable) {
			log.Ctx(ctx).Warn().Err(err).Str("courier_id", req.CourierID).Msg("location lookup failed")
		}
		return domain.Coordinates{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	return fix.Coords, nil
}

// ClusterPending groups the pending packages that have coordinates by proximity.
func ClusterPending(
	ctx context.Context,
	repo ports.PackageRepository,
	radiusKm float64,
) ([][]domain.DeliveryTarget, error) {
	pending, err := repo.ListPackages(ctx, ports.PackageFilter{Status: domain.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("cluster pending: list pending packages: %w", err)
	}

	targets := make([]domain.DeliveryTarget, 0, len(pending))
	for _, pkg := range pending {
		targets = append(targets, pkg.Target())
	}

	return ClusterTargets(targets, radiusKm), nil
}
