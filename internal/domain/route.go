package domain

// Represents one delivery target handed to the route optimizer.
// Targets lacking either coordinate are excluded from optimization.
type DeliveryTarget struct {
	ID  string
	Lat *float64
	Lon *float64
}

// Coords returns the target's coordinates and whether both are present.
func (t DeliveryTarget) Coords() (Coordinates, bool) {
	if t.Lat == nil || t.Lon == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *t.Lat, Lon: *t.Lon}, true
}

// NewTarget builds a target with both coordinates set.
func NewTarget(id string, lat, lon float64) DeliveryTarget {
	return DeliveryTarget{ID: id, Lat: &lat, Lon: &lon}
}

// Represents a single stop in an optimized route.
// VisitIndex is the 1-based position of the stop in the visiting order.
type RouteStop struct {
	ID         string
	VisitIndex int
	Lat        float64
	Lon        float64
}

func (s RouteStop) Coords() Coordinates {
	return Coordinates{Lat: s.Lat, Lon: s.Lon}
}

// Aggregate metrics of an optimized route. It is derived data and never persisted.
type RouteSummary struct {
	Stops            int
	TotalDistanceKm  float64
	EstimatedMinutes int
}
