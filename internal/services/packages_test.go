package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"courier-route-service/internal/adapters/repositories"
	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	known map[string]domain.Coordinates
	fail  map[string]error
	calls atomic.Int32
}

func (s *stubGeocoder) Geocode(_ context.Context, address string) (domain.Coordinates, error) {
	s.calls.Add(1)
	if err, ok := s.fail[address]; ok {
		return domain.Coordinates{}, err
	}
	c, ok := s.known[address]
	if !ok {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}
	return c, nil
}

func TestCreatePackage(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryPackageRepository()
	geocoder := &stubGeocoder{known: map[string]domain.Coordinates{
		"Valiasr St 12": {Lat: 35.75, Lon: 51.41},
	}}

	pkg, err := CreatePackage(ctx, CreatePackageRequest{TrackingNumber: " TRK-1 ", Address: "Valiasr St 12"}, repo, geocoder)
	require.NoError(t, err)
	assert.Equal(t, "TRK-1", pkg.TrackingNumber)
	assert.Equal(t, domain.StatusPending, pkg.Status)
	require.True(t, pkg.HasCoords())
	assert.Equal(t, 35.75, *pkg.Lat)

	_, err = CreatePackage(ctx, CreatePackageRequest{TrackingNumber: "TRK-1", Address: "x"}, repo, geocoder)
	assert.ErrorIs(t, err, domain.ErrDuplicatePackage)

	unknown, err := CreatePackage(ctx, CreatePackageRequest{TrackingNumber: "TRK-2", Address: "Nowhere"}, repo, geocoder)
	require.NoError(t, err)
	assert.False(t, unknown.HasCoords())

	stored, err := repo.GetPackage(ctx, "TRK-2")
	require.NoError(t, err)
	assert.False(t, stored.HasCoords())

	calls := geocoder.calls.Load()
	given, err := CreatePackage(ctx, CreatePackageRequest{TrackingNumber: "TRK-3", Address: "Given", Coords: at(35.7, 51.4)}, repo, geocoder)
	require.NoError(t, err)
	assert.True(t, given.HasCoords())
	assert.Equal(t, calls, geocoder.calls.Load())
}

// barrierGeocoder holds every lookup until n callers have arrived.
type barrierGeocoder struct {
	wg sync.WaitGroup
}

func (b *barrierGeocoder) Geocode(_ context.Context, _ string) (domain.Coordinates, error) {
	b.wg.Done()
	b.wg.Wait()
	return domain.Coordinates{Lat: 35.7, Lon: 51.4}, nil
}

func TestCreatePackageConcurrentDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryPackageRepository()
	geocoder := &barrierGeocoder{}
	geocoder.wg.Add(2)

	// Both requests pass the existence check before either inserts.
	errs := make(chan error, 2)
	for _, addr := range []string{"first", "second"} {
		go func() {
			_, err := CreatePackage(ctx, CreatePackageRequest{TrackingNumber: "TRK-9", Address: addr}, repo, geocoder)
			errs <- err
		}()
	}

	var ok, dup int
	for range 2 {
		err := <-errs
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicatePackage):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)

	pkgs, err := repo.ListPackages(ctx, ports.PackageFilter{})
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)
}

func TestCreatePackageRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryPackageRepository()

	_, err := CreatePackage(ctx, CreatePackageRequest{TrackingNumber: "  ", Address: "a"}, repo, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPackage)

	_, err = CreatePackage(ctx, CreatePackageRequest{TrackingNumber: "T", Address: ""}, repo, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPackage)

	_, err = CreatePackage(ctx, CreatePackageRequest{TrackingNumber: "T", Address: "a", Coords: at(0, 200)}, repo, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)

	pkgs, err := repo.ListPackages(ctx, ports.PackageFilter{})
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestGeocodeMissing(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryPackageRepository()
	savePkg(t, repo, "has", domain.StatusPending, at(1, 1))
	for _, tr := range []string{"a", "b", "c", "lost"} {
		savePkg(t, repo, tr, domain.StatusPending, nil)
	}

	geocoder := &stubGeocoder{known: map[string]domain.Coordinates{
		"addr a": {Lat: 35.1, Lon: 51.1},
		"addr b": {Lat: 35.2, Lon: 51.2},
		"addr c": {Lat: 35.3, Lon: 51.3},
	}}

	report, err := GeocodeMissing(ctx, repo, geocoder, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, report.Resolved)
	assert.Equal(t, []string{"lost"}, report.Unresolved)
	assert.EqualValues(t, 4, geocoder.calls.Load())

	b, err := repo.GetPackage(ctx, "b")
	require.NoError(t, err)
	require.True(t, b.HasCoords())
	assert.Equal(t, 51.2, *b.Lon)
}

func TestGeocodeMissingAbortsOnProviderError(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryPackageRepository()
	savePkg(t, repo, "a", domain.StatusPending, nil)

	boom := errors.New("provider down")
	geocoder := &stubGeocoder{fail: map[string]error{"addr a": boom}}

	_, err := GeocodeMissing(ctx, repo, geocoder, 4)
	assert.ErrorIs(t, err, boom)

	_, err = GeocodeMissing(ctx, repo, nil, 1)
	assert.Error(t, err)
}
