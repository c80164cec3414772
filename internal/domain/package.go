package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrPackageNotFound  = errors.New("package not found")
	ErrDuplicatePackage = errors.New("package already exists")
	ErrInvalidPackage   = errors.New("invalid package")
)

type PackageStatus string

const (
	StatusPending   PackageStatus = "pending"
	StatusDelivered PackageStatus = "delivered"
)

// ParsePackageStatus accepts "pending" or "delivered" (case-insensitive).
func ParsePackageStatus(s string) (PackageStatus, error) {
	switch PackageStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusDelivered:
		return StatusDelivered, nil
	}
	return "", fmt.Errorf("parse package status: unknown status %q", s)
}

// Represents a single parcel carried by the courier during a shift.
// A Package is keyed by its tracking number. Coordinates are optional:
// they are filled in by geocoding the address and may be missing when
// the geocoder could not resolve it.
// VisitIndex is the 1-based delivery order written back after route optimization.
type Package struct {
	TrackingNumber string
	Address        string
	Lat            *float64
	Lon            *float64
	Status         PackageStatus
	VisitIndex     *int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SetCoords stores both coordinate components on the package.
func (p *Package) SetCoords(c Coordinates) {
	lat, lon := c.Lat, c.Lon
	p.Lat = &lat
	p.Lon = &lon
}

// HasCoords reports whether both latitude and longitude are known.
func (p *Package) HasCoords() bool {
	return p.Lat != nil && p.Lon != nil
}

// Target converts the package into an optimizer input.
func (p *Package) Target() DeliveryTarget {
	return DeliveryTarget{ID: p.TrackingNumber, Lat: p.Lat, Lon: p.Lon}
}

// One persisted (tracking number, visit index) pair.
type VisitAssignment struct {
	TrackingNumber string
	VisitIndex     int
}

type PackageStats struct {
	Total     int
	Delivered int
	Pending   int
}
