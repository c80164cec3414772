package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type CreatePackageRequest struct {
	TrackingNumber string
	Address        string
	// Known coordinates skip geocoding.
	Coords *domain.Coordinates
}

// CreatePackage registers a new pending package.
//
// The address is geocoded unless coordinates are supplied. A failed lookup does not
// reject the package; it is stored without coordinates and stays out of route
// optimization until GeocodeMissing resolves it.
func CreatePackage(
	ctx context.Context,
	req CreatePackageRequest,
	repo ports.PackageRepository,
	geocoder ports.Geocoder,
) (*domain.Package, error) {
	tracking := strings.TrimSpace(req.TrackingNumber)
	if tracking == "" {
		return nil, fmt.Errorf("create package: %w: tracking number must not be empty", domain.ErrInvalidPackage)
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, fmt.Errorf("create package: %w: address must not be empty", domain.ErrInvalidPackage)
	}

	_, err := repo.GetPackage(ctx, tracking)
	switch {
	case err == nil:
		return nil, fmt.Errorf("create package %q: %w", tracking, domain.ErrDuplicatePackage)
	case !errors.Is(err, domain.ErrPackageNotFound):
		return nil, fmt.Errorf("create package %q: lookup: %w", tracking, err)
	}

	pkg := &domain.Package{
		TrackingNumber: tracking,
		Address:        address,
		Status:         domain.StatusPending,
	}

	if req.Coords != nil {
		if err := req.Coords.Validate(); err != nil {
			return nil, fmt.Errorf("create package %q: %w", tracking, err)
		}
		pkg.SetCoords(*req.Coords)
	} else if geocoder != nil {
		coords, err := geocoder.Geocode(ctx, address)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("tracking_number", tracking).Msg("geocoding failed, storing package without coordinates")
		} else {
			pkg.SetCoords(coords)
		}
	}

	// The lookup above only avoids a wasted geocode; the insert decides duplicates.
	if err := repo.InsertPackage(ctx, pkg); err != nil {
		return nil, fmt.Errorf("create package %q: %w", tracking, err)
	}

	return pkg, nil
}

type GeocodeReport struct {
	Resolved   []string
	Unresolved []string
}

// GeocodeMissing geocodes every stored package that lacks coordinates.
//
// Lookups run concurrently, at most concurrency at a time. Addresses the geocoder
// cannot resolve are reported as unresolved; any other failure aborts the run.
func GeocodeMissing(
	ctx context.Context,
	repo ports.PackageRepository,
	geocoder ports.Geocoder,
	concurrency int,
) (_ *GeocodeReport, err error) {
	defer obs.Time(ctx, "services.GeocodeMissing")(&err)

	if geocoder == nil {
		return nil, errors.New("geocode missing: geocoder is nil")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	pkgs, err := repo.ListPackages(ctx, ports.PackageFilter{})
	if err != nil {
		return nil, fmt.Errorf("geocode missing: list packages: %w", err)
	}

	report := &GeocodeReport{Resolved: []string{}, Unresolved: []string{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, pkg := range pkgs {
		if pkg.HasCoords() {
			continue
		}

		g.Go(func() error {
			coords, err := geocoder.Geocode(gctx, pkg.Address)
			if errors.Is(err, ports.ErrAddressNotFound) {
				mu.Lock()
				report.Unresolved = append(report.Unresolved, pkg.TrackingNumber)
				mu.Unlock()
				return nil
			}
			if err != nil {
				return fmt.Errorf("geocode %q: %w", pkg.TrackingNumber, err)
			}

			pkg.SetCoords(coords)
			if err := repo.SavePackage(gctx, pkg); err != nil {
				return fmt.Errorf("save %q: %w", pkg.TrackingNumber, err)
			}

			mu.Lock()
			report.Resolved = append(report.Resolved, pkg.TrackingNumber)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("geocode missing: %w", err)
	}

	return report, nil
}
