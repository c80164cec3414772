package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"
)

const orsBaseURL = "https://api.openrouteservice.org"

type orsGeocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder resolves addresses with OpenRouteService (/geocode/search).
// It is safe for concurrent use.
type ORSGeocoder struct {
	client  *apiClient
	country string
}

// NewORSGeocoder creates an ORS geocoder. country restricts results to an ISO
// country code when non-empty.
func NewORSGeocoder(apiKey, country string, ratePerSec float64) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSGeocoder{
		client:  newAPIClient(orsBaseURL, "Authorization", apiKey, ratePerSec),
		country: country,
	}, nil
}

func (o *ORSGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := NormalizeAddress(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("ors geocode: address must be non-empty")
	}

	endpoint := o.client.baseURL + "/geocode/search"

	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.client.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			return domain.Coordinates{}, fmt.Errorf("ors geocode %q: %w", norm, ports.ErrAddressNotFound)
		}
		return domain.Coordinates{}, fmt.Errorf("ors geocode %q: execute request: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded orsGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("ors geocode %q: decode response: %w", norm, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("ors geocode %q: %w", norm, ports.ErrAddressNotFound)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("ors geocode %q: invalid coordinate format", norm)
	}

	c := domain.Coordinates{Lon: coords[0], Lat: coords[1]}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("ors geocode %q: %w", norm, err)
	}
	return c, nil
}
