package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
)

type PackageSeed struct {
	TrackingNumber string   `json:"tracking_number"`
	Address        string   `json:"address"`
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
	Status         string   `json:"status"`
}

// LoadSeed reads and validates package seed data from a JSON file.
func LoadSeed(jsonPath string) ([]*domain.Package, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load seed: read %q: %w", jsonPath, err)
	}

	var data []PackageSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("load seed: parse json: %w", err)
	}

	seen := make(map[string]struct{}, len(data))
	pkgs := make([]*domain.Package, 0, len(data))
	for i, item := range data {
		tracking := strings.TrimSpace(item.TrackingNumber)
		if tracking == "" {
			return nil, fmt.Errorf("load seed: item %d: tracking number cannot be empty", i+1)
		}
		if _, ok := seen[tracking]; ok {
			return nil, fmt.Errorf("load seed: item %d: duplicate tracking number %q", i+1, tracking)
		}
		seen[tracking] = struct{}{}

		addr := strings.TrimSpace(item.Address)
		if addr == "" {
			return nil, fmt.Errorf("load seed: item %d: address cannot be empty", i+1)
		}

		status := domain.StatusPending
		if item.Status != "" {
			status, err = domain.ParsePackageStatus(item.Status)
			if err != nil {
				return nil, fmt.Errorf("load seed: item %d: %w", i+1, err)
			}
		}

		pkg := &domain.Package{TrackingNumber: tracking, Address: addr, Status: status}
		if (item.Lat == nil) != (item.Lon == nil) {
			return nil, fmt.Errorf("load seed: item %d: lat and lon must be given together", i+1)
		}
		if item.Lat != nil {
			c := domain.Coordinates{Lat: *item.Lat, Lon: *item.Lon}
			if err := c.Validate(); err != nil {
				return nil, fmt.Errorf("load seed: item %d: %w", i+1, err)
			}
			pkg.SetCoords(c)
		}
		pkgs = append(pkgs, pkg)
	}

	return pkgs, nil
}

// SeedFromJSON loads packages from jsonPath and upserts them through repo.
func SeedFromJSON(ctx context.Context, repo ports.PackageRepository, jsonPath string) error {
	pkgs, err := LoadSeed(jsonPath)
	if err != nil {
		return fmt.Errorf("seed packages: %w", err)
	}

	for _, p := range pkgs {
		if err := repo.SavePackage(ctx, p); err != nil {
			return fmt.Errorf("seed packages: save %q: %w", p.TrackingNumber, err)
		}
	}

	return nil
}
