package ports

import (
	"context"

	"courier-route-service/internal/domain"
)

// Restricts ListPackages to one status; the zero value lists every package.
type PackageFilter struct {
	Status domain.PackageStatus
}

// Port: a boundary for storing the courier's packages, keyed by tracking number.
type PackageRepository interface {
	// Retrieve packages matching the filter, oldest first.
	ListPackages(ctx context.Context, filter PackageFilter) ([]*domain.Package, error)
	// Retrieve one package; domain.ErrPackageNotFound when absent.
	GetPackage(ctx context.Context, trackingNumber string) (*domain.Package, error)
	// Insert or update a package by tracking number.
	SavePackage(ctx context.Context, pkg *domain.Package) error
	// Insert a new package; domain.ErrDuplicatePackage when the tracking number exists.
	InsertPackage(ctx context.Context, pkg *domain.Package) error
	DeletePackage(ctx context.Context, trackingNumber string) error
	UpdateStatus(ctx context.Context, trackingNumber string, status domain.PackageStatus) error
	// Persist visit indexes in one transaction. Unknown tracking numbers are skipped.
	UpdateVisitOrder(ctx context.Context, assignments []domain.VisitAssignment) error
	Stats(ctx context.Context) (domain.PackageStats, error)
	// Case-insensitive substring match on tracking number or address.
	Search(ctx context.Context, query string) ([]*domain.Package, error)
	// Packages that carry a visit index, in ascending visit order.
	ListByVisitOrder(ctx context.Context) ([]*domain.Package, error)
	Clear(ctx context.Context) error
}
