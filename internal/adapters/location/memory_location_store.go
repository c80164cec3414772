package location

import (
	"context"
	"fmt"
	"sync"

	"courier-route-service/internal/ports"
)

// Number of fixes kept per courier.
const HistoryLimit = 100

// MemoryLocationStore keeps the latest fixes per courier in process memory.
type MemoryLocationStore struct {
	mu      sync.RWMutex
	history map[string][]ports.LocationFix
}

func NewMemoryLocationStore() *MemoryLocationStore {
	return &MemoryLocationStore{history: make(map[string][]ports.LocationFix)}
}

func (m *MemoryLocationStore) UpdateLocation(_ context.Context, courierID string, fix ports.LocationFix) error {
	if err := fix.Coords.Validate(); err != nil {
		return fmt.Errorf("update location: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h := append(m.history[courierID], fix)
	if len(h) > HistoryLimit {
		h = h[len(h)-HistoryLimit:]
	}
	m.history[courierID] = h
	return nil
}

func (m *MemoryLocationStore) CurrentLocation(_ context.Context, courierID string) (ports.LocationFix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.history[courierID]
	if len(h) == 0 {
		return ports.LocationFix{}, fmt.Errorf("courier %q: %w", courierID, ports.ErrLocationUnavailable)
	}
	return h[len(h)-1], nil
}

func (m *MemoryLocationStore) History(_ context.Context, courierID string, limit int) ([]ports.LocationFix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.history[courierID]
	if limit <= 0 || limit > len(h) {
		limit = len(h)
	}

	out := make([]ports.LocationFix, 0, limit)
	for i := len(h) - 1; i >= len(h)-limit; i-- {
		out = append(out, h[i])
	}
	return out, nil
}
