package geo

import (
	"testing"

	"courier-route-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

var (
	azadiSquare = domain.Coordinates{Lat: 35.6892, Lon: 51.389}
	valiasr     = domain.Coordinates{Lat: 35.7595, Lon: 51.3801}
)

func TestHaversineKmSamePoint(t *testing.T) {
	points := []domain.Coordinates{
		azadiSquare,
		{Lat: 0, Lon: 0},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 90, Lon: 45},
	}
	for _, p := range points {
		assert.Zero(t, HaversineKm(p, p), "point %+v", p)
	}
}

func TestHaversineKmSymmetric(t *testing.T) {
	pairs := [][2]domain.Coordinates{
		{azadiSquare, valiasr},
		{{Lat: 51.5074, Lon: -0.1278}, {Lat: 40.7128, Lon: -74.0060}},
		{{Lat: -10, Lon: 170}, {Lat: 10, Lon: -170}},
	}
	for _, p := range pairs {
		assert.InDelta(t, HaversineKm(p[0], p[1]), HaversineKm(p[1], p[0]), 1e-9)
	}
}

func TestHaversineKmTehranSample(t *testing.T) {
	d := HaversineKm(azadiSquare, valiasr)
	assert.InDelta(t, 7.9, d, 0.2)
}

func TestHaversineKmQuarterMeridian(t *testing.T) {
	// Equator to pole along a meridian is a quarter of the circumference.
	d := HaversineKm(domain.Coordinates{Lat: 0, Lon: 0}, domain.Coordinates{Lat: 90, Lon: 0})
	assert.InDelta(t, 10007.5, d, 0.5)
}

func TestHaversineKmNonNegative(t *testing.T) {
	d := HaversineKm(domain.Coordinates{Lat: 10, Lon: 10}, domain.Coordinates{Lat: -10, Lon: -10})
	assert.Greater(t, d, 0.0)
}
