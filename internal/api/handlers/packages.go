package handlers

import (
	"net/http"
	"strings"

	"courier-route-service/internal/api/dto"
	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
	"courier-route-service/internal/services"
)

// PackageHandler exposes the courier's package list.
type PackageHandler struct {
	Repo     ports.PackageRepository
	Geocoder ports.Geocoder
	// Parallel lookups for POST /packages/geocode.
	GeocodeConcurrency int
}

// List handles GET /packages with optional status and q query parameters.
func (h *PackageHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter ports.PackageFilter
	if s := strings.TrimSpace(q.Get("status")); s != "" && s != "all" {
		status, err := domain.ParsePackageStatus(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "status must be one of [pending delivered all]")
			return
		}
		filter.Status = status
	}

	var (
		pkgs []*domain.Package
		err  error
	)
	if query := strings.TrimSpace(q.Get("q")); query != "" {
		pkgs, err = h.Repo.Search(r.Context(), query)
		pkgs = filterByStatus(pkgs, filter.Status)
	} else {
		pkgs, err = h.Repo.ListPackages(r.Context(), filter)
	}
	if err != nil {
		writeServiceError(w, r, "list packages", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewListPackagesResponse(pkgs))
}

func filterByStatus(pkgs []*domain.Package, status domain.PackageStatus) []*domain.Package {
	if status == "" {
		return pkgs
	}
	out := make([]*domain.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// Create handles POST /packages.
func (h *PackageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePackageRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if (req.Lat == nil) != (req.Lon == nil) {
		writeError(w, r, http.StatusBadRequest, "lat and lon must be given together")
		return
	}

	svcReq := services.CreatePackageRequest{
		TrackingNumber: req.TrackingNumber,
		Address:        req.Address,
	}
	if req.Lat != nil {
		svcReq.Coords = &domain.Coordinates{Lat: *req.Lat, Lon: *req.Lon}
	}

	pkg, err := services.CreatePackage(r.Context(), svcReq, h.Repo, h.Geocoder)
	if err != nil {
		writeServiceError(w, r, "create package", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.NewPackageResponse(pkg))
}

// Get handles GET /packages/{tracking}.
func (h *PackageHandler) Get(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.Repo.GetPackage(r.Context(), r.PathValue("tracking"))
	if err != nil {
		writeServiceError(w, r, "get package", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewPackageResponse(pkg))
}

// Delete handles DELETE /packages/{tracking}.
func (h *PackageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.DeletePackage(r.Context(), r.PathValue("tracking")); err != nil {
		writeServiceError(w, r, "delete package", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus handles PATCH /packages/{tracking}/status.
func (h *PackageHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateStatusRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	status, err := domain.ParsePackageStatus(req.Status)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tracking := r.PathValue("tracking")
	if err := h.Repo.UpdateStatus(r.Context(), tracking, status); err != nil {
		writeServiceError(w, r, "update status", err)
		return
	}

	pkg, err := h.Repo.GetPackage(r.Context(), tracking)
	if err != nil {
		writeServiceError(w, r, "update status", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewPackageResponse(pkg))
}

// Stats handles GET /packages/stats.
func (h *PackageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Repo.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, "package stats", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.PackageStatsResponse{
		Total:     stats.Total,
		Delivered: stats.Delivered,
		Pending:   stats.Pending,
	})
}

// Ordered handles GET /packages/ordered: packages in their last optimized visit order.
func (h *PackageHandler) Ordered(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.Repo.ListByVisitOrder(r.Context())
	if err != nil {
		writeServiceError(w, r, "ordered packages", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewListPackagesResponse(pkgs))
}

// Geocode handles POST /packages/geocode.
func (h *PackageHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	report, err := services.GeocodeMissing(r.Context(), h.Repo, h.Geocoder, h.GeocodeConcurrency)
	if err != nil {
		writeServiceError(w, r, "geocode packages", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.GeocodeReportResponse{
		Resolved:   report.Resolved,
		Unresolved: report.Unresolved,
	})
}
