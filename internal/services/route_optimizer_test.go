package services

import (
	"testing"

	"courier-route-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stopIDs(stops []domain.RouteStop) []string {
	ids := make([]string, 0, len(stops))
	for _, s := range stops {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestOptimizeRouteVisitsNearestFirst(t *testing.T) {
	start := domain.Coordinates{Lat: 0, Lon: 0}
	targets := []domain.DeliveryTarget{
		domain.NewTarget("C", 0, 0.03),
		domain.NewTarget("A", 0, 0.01),
		domain.NewTarget("B", 0, 0.02),
	}

	stops := OptimizeRoute(targets, start)

	require.Len(t, stops, 3)
	assert.Equal(t, []string{"A", "B", "C"}, stopIDs(stops))
	for i, s := range stops {
		assert.Equal(t, i+1, s.VisitIndex)
	}
	assert.Equal(t, 0.03, stops[2].Lon)
}

func TestOptimizeRouteSkipsTargetsWithoutCoordinates(t *testing.T) {
	lat := 35.7
	targets := []domain.DeliveryTarget{
		domain.NewTarget("ok", 35.70, 51.40),
		{ID: "no-lon", Lat: &lat},
		{ID: "none"},
		domain.NewTarget("ok2", 35.71, 51.41),
	}

	stops := OptimizeRoute(targets, domain.Coordinates{Lat: 35.69, Lon: 51.39})

	assert.ElementsMatch(t, []string{"ok", "ok2"}, stopIDs(stops))
	assert.Equal(t, 1, stops[0].VisitIndex)
	assert.Equal(t, 2, stops[1].VisitIndex)
}

func TestOptimizeRouteOrderUnaffectedByTargetsWithoutCoordinates(t *testing.T) {
	start := domain.Coordinates{Lat: 35.6892, Lon: 51.389}
	valid := []domain.DeliveryTarget{
		domain.NewTarget("v1", 35.7575, 51.4103),
		domain.NewTarget("v2", 35.7010, 51.3910),
		domain.NewTarget("v3", 35.6997, 51.3380),
		domain.NewTarget("v4", 35.7010, 51.3910),
	}
	lat, lon := 35.70, 51.39

	mixed := []domain.DeliveryTarget{
		{ID: "x1"},
		valid[0],
		{ID: "x2", Lat: &lat},
		valid[1],
		valid[2],
		{ID: "x3", Lon: &lon},
		valid[3],
	}

	want := stopIDs(OptimizeRoute(valid, start))
	got := stopIDs(OptimizeRoute(mixed, start))

	assert.Equal(t, want, got)
	assert.Equal(t, []string{"v2", "v4", "v3", "v1"}, got)
}

func TestOptimizeRouteEmptyInput(t *testing.T) {
	stops := OptimizeRoute(nil, domain.Coordinates{})
	require.NotNil(t, stops)
	assert.Empty(t, stops)

	stops = OptimizeRoute([]domain.DeliveryTarget{{ID: "x"}}, domain.Coordinates{})
	require.NotNil(t, stops)
	assert.Empty(t, stops)
}

func TestOptimizeRouteTieKeepsInputOrder(t *testing.T) {
	start := domain.Coordinates{Lat: 0, Lon: 0}
	targets := []domain.DeliveryTarget{
		domain.NewTarget("west", 0, -0.01),
		domain.NewTarget("east", 0, 0.01),
	}

	stops := OptimizeRoute(targets, start)
	assert.Equal(t, []string{"west", "east"}, stopIDs(stops))

	targets[0], targets[1] = targets[1], targets[0]
	stops = OptimizeRoute(targets, start)
	assert.Equal(t, []string{"east", "west"}, stopIDs(stops))
}

func TestOptimizeRouteEachTargetOnce(t *testing.T) {
	targets := []domain.DeliveryTarget{
		domain.NewTarget("p1", 35.7000, 51.4000),
		domain.NewTarget("p2", 35.7200, 51.3800),
		domain.NewTarget("p3", 35.6900, 51.4200),
		domain.NewTarget("p4", 35.7500, 51.4100),
		domain.NewTarget("p5", 35.7000, 51.4000),
	}
	before := append([]domain.DeliveryTarget(nil), targets...)

	stops := OptimizeRoute(targets, domain.Coordinates{Lat: 35.6892, Lon: 51.389})

	require.Len(t, stops, len(targets))
	seen := map[string]bool{}
	for i, s := range stops {
		assert.False(t, seen[s.ID], "duplicate stop %s", s.ID)
		seen[s.ID] = true
		assert.Equal(t, i+1, s.VisitIndex)
	}
	assert.Equal(t, before, targets)
}
