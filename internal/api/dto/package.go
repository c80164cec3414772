package dto

import (
	"time"

	"courier-route-service/internal/domain"
)

type CreatePackageRequest struct {
	TrackingNumber string   `json:"tracking_number" validate:"required,max=64"`
	Address        string   `json:"address" validate:"required,max=500"`
	Lat            *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon            *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending delivered"`
}

type PackageResponse struct {
	TrackingNumber string    `json:"tracking_number"`
	Address        string    `json:"address"`
	Lat            *float64  `json:"lat"`
	Lon            *float64  `json:"lon"`
	Status         string    `json:"status"`
	VisitIndex     *int      `json:"visit_index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ListPackagesResponse struct {
	Packages []PackageResponse `json:"packages"`
}

type PackageStatsResponse struct {
	Total     int `json:"total"`
	Delivered int `json:"delivered"`
	Pending   int `json:"pending"`
}

type GeocodeReportResponse struct {
	Resolved   []string `json:"resolved"`
	Unresolved []string `json:"unresolved"`
}

func NewPackageResponse(p *domain.Package) PackageResponse {
	return PackageResponse{
		TrackingNumber: p.TrackingNumber,
		Address:        p.Address,
		Lat:            p.Lat,
		Lon:            p.Lon,
		Status:         string(p.Status),
		VisitIndex:     p.VisitIndex,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func NewListPackagesResponse(pkgs []*domain.Package) ListPackagesResponse {
	res := ListPackagesResponse{Packages: make([]PackageResponse, 0, len(pkgs))}
	for _, p := range pkgs {
		res.Packages = append(res.Packages, NewPackageResponse(p))
	}
	return res
}
