package handlers

import (
	"net/http"
	"strconv"
	"time"

	"courier-route-service/internal/api/dto"
	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
)

type LocationHandler struct {
	Store            ports.LocationStore
	DefaultCourierID string
	Now              func() time.Time
}

func (h *LocationHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// Update handles PUT /location: the courier reports a position.
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateLocationRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	courierID := courierOrDefault(req.CourierID, h.DefaultCourierID)
	fix := ports.LocationFix{
		Coords:     domain.Coordinates{Lat: *req.Lat, Lon: *req.Lon},
		ReportedAt: h.now().UTC(),
	}
	if err := h.Store.UpdateLocation(r.Context(), courierID, fix); err != nil {
		writeServiceError(w, r, "update location", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.LocationResponse{
		CourierID: courierID,
		Current:   fixResponse(fix),
	})
}

// Current handles GET /location?courier_id=&history=N.
func (h *LocationHandler) Current(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courierID := courierOrDefault(q.Get("courier_id"), h.DefaultCourierID)

	limit := 0
	if s := q.Get("history"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "history must be a non-negative integer")
			return
		}
		limit = n
	}

	fix, err := h.Store.CurrentLocation(r.Context(), courierID)
	if err != nil {
		writeServiceError(w, r, "current location", err)
		return
	}

	res := dto.LocationResponse{CourierID: courierID, Current: fixResponse(fix)}
	if limit > 0 {
		history, err := h.Store.History(r.Context(), courierID, limit)
		if err != nil {
			writeServiceError(w, r, "location history", err)
			return
		}
		res.History = make([]dto.LocationFixResponse, 0, len(history))
		for _, f := range history {
			res.History = append(res.History, fixResponse(f))
		}
	}

	writeJSON(w, r, http.StatusOK, res)
}

func fixResponse(f ports.LocationFix) dto.LocationFixResponse {
	return dto.LocationFixResponse{Lat: f.Coords.Lat, Lon: f.Coords.Lon, ReportedAt: f.ReportedAt}
}
