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

const neshanBaseURL = "https://api.neshan.org"

// Neshan answers with x = longitude, y = latitude.
type neshanGeocodeResponse struct {
	Status   string `json:"status"`
	Location *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"location"`
}

// NeshanGeocoder resolves addresses with the Neshan v4 geocoding API.
type NeshanGeocoder struct {
	client *apiClient
}

func NewNeshanGeocoder(apiKey string, ratePerSec float64) (*NeshanGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("neshan api key is empty")
	}

	return &NeshanGeocoder{
		client: newAPIClient(neshanBaseURL, "Api-Key", apiKey, ratePerSec),
	}, nil
}

func (n *NeshanGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "neshan.Geocode")(&err)

	norm := NormalizeAddress(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("neshan geocode: address must be non-empty")
	}

	endpoint := n.client.baseURL + "/v4/geocoding"

	resp, err := n.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := n.client.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("address", norm)
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			return domain.Coordinates{}, fmt.Errorf("neshan geocode %q: %w", norm, ports.ErrAddressNotFound)
		}
		return domain.Coordinates{}, fmt.Errorf("neshan geocode %q: execute request: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded neshanGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("neshan geocode %q: decode response: %w", norm, err)
	}

	if decoded.Location == nil {
		return domain.Coordinates{}, fmt.Errorf("neshan geocode %q: %w", norm, ports.ErrAddressNotFound)
	}

	c := domain.Coordinates{Lat: decoded.Location.Y, Lon: decoded.Location.X}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("neshan geocode %q: %w", norm, err)
	}
	return c, nil
}
