package services

import (
	"context"
	"testing"
	"time"

	"courier-route-service/internal/adapters/location"
	"courier-route-service/internal/adapters/repositories"
	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savePkg(t *testing.T, repo ports.PackageRepository, tracking string, status domain.PackageStatus, coords *domain.Coordinates) {
	t.Helper()
	pkg := &domain.Package{TrackingNumber: tracking, Address: "addr " + tracking, Status: status}
	if coords != nil {
		pkg.SetCoords(*coords)
	}
	require.NoError(t, repo.SavePackage(context.Background(), pkg))
}

func at(lat, lon float64) *domain.Coordinates {
	return &domain.Coordinates{Lat: lat, Lon: lon}
}

func TestOptimizeDeliveries(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryPackageRepository()
	savePkg(t, repo, "far", domain.StatusPending, at(0, 0.02))
	savePkg(t, repo, "near", domain.StatusPending, at(0, 0.01))
	savePkg(t, repo, "unknown", domain.StatusPending, nil)
	savePkg(t, repo, "done", domain.StatusDelivered, at(0, 0.005))

	res, err := OptimizeDeliveries(ctx, OptimizeDeliveriesRequest{Start: at(0, 0)}, repo, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"near", "far"}, stopIDs(res.Stops))
	assert.Equal(t, []string{"unknown"}, res.Skipped)
	assert.Equal(t, 2, res.Summary.Stops)
	assert.InDelta(t, 2*1.1119, res.Summary.TotalDistanceKm, 0.001)
	assert.Equal(t, 5, res.Summary.EstimatedMinutes)

	ordered, err := repo.ListByVisitOrder(ctx)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "near", ordered[0].TrackingNumber)
	assert.Equal(t, 1, *ordered[0].VisitIndex)
	assert.Equal(t, "far", ordered[1].TrackingNumber)
	assert.Equal(t, 2, *ordered[1].VisitIndex)

	done, err := repo.GetPackage(ctx, "done")
	require.NoError(t, err)
	assert.Nil(t, done.VisitIndex)
}

func TestOptimizeDeliveriesUsesTrackedLocation(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryPackageRepository()
	savePkg(t, repo, "west", domain.StatusPending, at(0, -0.01))
	savePkg(t, repo, "east", domain.StatusPending, at(0, 0.05))

	locations := location.NewMemoryLocationStore()
	require.NoError(t, locations.UpdateLocation(ctx, "courier-1", ports.LocationFix{
		Coords:     domain.Coordinates{Lat: 0, Lon: 0.04},
		ReportedAt: time.Now(),
	}))

	res, err := OptimizeDeliveries(ctx, OptimizeDeliveriesRequest{CourierID: "courier-1"}, repo, locations)
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 0, Lon: 0.04}, res.Start)
	assert.Equal(t, []string{"east", "west"}, stopIDs(res.Stops))
}

func TestOptimizeDeliveriesErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("no pending packages", func(t *testing.T) {
		repo := repositories.NewMemoryPackageRepository()
		savePkg(t, repo, "done", domain.StatusDelivered, at(0, 0.01))

		_, err := OptimizeDeliveries(ctx, OptimizeDeliveriesRequest{Start: at(0, 0)}, repo, nil)
		assert.ErrorIs(t, err, ErrNothingToOptimize)
	})

	t.Run("no pending package has coordinates", func(t *testing.T) {
		repo := repositories.NewMemoryPackageRepository()
		savePkg(t, repo, "a", domain.StatusPending, nil)

		_, err := OptimizeDeliveries(ctx, OptimizeDeliveriesRequest{Start: at(0, 0)}, repo, nil)
		assert.ErrorIs(t, err, ErrNothingToOptimize)
	})

	t.Run("location unavailable", func(t *testing.T) {
		repo := repositories.NewMemoryPackageRepository()
		savePkg(t, repo, "a", domain.StatusPending, at(0, 0.01))

		_, err := OptimizeDeliveries(ctx, OptimizeDeliveriesRequest{CourierID: "c"}, repo, location.NewMemoryLocationStore())
		assert.ErrorIs(t, err, ErrLocationUnavailable)

		_, err = OptimizeDeliveries(ctx, OptimizeDeliveriesRequest{CourierID: "c"}, repo, nil)
		assert.ErrorIs(t, err, ErrLocationUnavailable)

		ordered, err := repo.ListByVisitOrder(ctx)
		require.NoError(t, err)
		assert.Empty(t, ordered)
	})

	t.Run("invalid start", func(t *testing.T) {
		repo := repositories.NewMemoryPackageRepository()
		savePkg(t, repo, "a", domain.StatusPending, at(0, 0.01))

		_, err := OptimizeDeliveries(ctx, OptimizeDeliveriesRequest{Start: at(95, 0)}, repo, nil)
		assert.ErrorIs(t, err, ErrInvalidStart)
	})
}

func TestClusterPending(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryPackageRepository()
	savePkg(t, repo, "a", domain.StatusPending, at(0, 0))
	savePkg(t, repo, "b", domain.StatusPending, at(0, 0.01))
	savePkg(t, repo, "c", domain.StatusPending, at(0, 0.5))
	savePkg(t, repo, "d", domain.StatusDelivered, at(0, 0.001))
	savePkg(t, repo, "e", domain.StatusPending, nil)

	clusters, err := ClusterPending(ctx, repo, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, clusterIDs(clusters))
}
