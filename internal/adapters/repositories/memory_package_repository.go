package repositories

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
)

// In-memory PackageRepository, safe for concurrent use.
// Packages are returned as copies so callers cannot mutate stored state.
type MemoryPackageRepository struct {
	mu   sync.RWMutex
	pkgs map[string]memoryEntry
	seq  int
	Now  func() time.Time
}

type memoryEntry struct {
	pkg domain.Package
	seq int
}

func NewMemoryPackageRepository() *MemoryPackageRepository {
	return &MemoryPackageRepository{pkgs: make(map[string]memoryEntry), Now: time.Now}
}

func (m *MemoryPackageRepository) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *MemoryPackageRepository) ListPackages(_ context.Context, filter ports.PackageFilter) ([]*domain.Package, error) {
	return m.collect(func(p *domain.Package) bool {
		return filter.Status == "" || p.Status == filter.Status
	}), nil
}

func (m *MemoryPackageRepository) GetPackage(_ context.Context, trackingNumber string) (*domain.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.pkgs[trackingNumber]
	if !ok {
		return nil, fmt.Errorf("get package %q: %w", trackingNumber, domain.ErrPackageNotFound)
	}
	return clonePackage(&e.pkg), nil
}

func (m *MemoryPackageRepository) SavePackage(_ context.Context, pkg *domain.Package) error {
	if pkg == nil || strings.TrimSpace(pkg.TrackingNumber) == "" {
		return errors.New("save package: tracking number must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stored := clonePackage(pkg)
	if stored.Status == "" {
		stored.Status = domain.StatusPending
	}
	stored.UpdatedAt = now

	if e, ok := m.pkgs[pkg.TrackingNumber]; ok {
		stored.CreatedAt = e.pkg.CreatedAt
		m.pkgs[pkg.TrackingNumber] = memoryEntry{pkg: *stored, seq: e.seq}
	} else {
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		m.seq++
		m.pkgs[pkg.TrackingNumber] = memoryEntry{pkg: *stored, seq: m.seq}
	}

	pkg.Status = stored.Status
	pkg.CreatedAt = stored.CreatedAt
	pkg.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemoryPackageRepository) InsertPackage(_ context.Context, pkg *domain.Package) error {
	if pkg == nil || strings.TrimSpace(pkg.TrackingNumber) == "" {
		return errors.New("insert package: tracking number must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pkgs[pkg.TrackingNumber]; ok {
		return fmt.Errorf("insert package %q: %w", pkg.TrackingNumber, domain.ErrDuplicatePackage)
	}

	now := m.now()
	stored := clonePackage(pkg)
	if stored.Status == "" {
		stored.Status = domain.StatusPending
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.seq++
	m.pkgs[pkg.TrackingNumber] = memoryEntry{pkg: *stored, seq: m.seq}

	pkg.Status = stored.Status
	pkg.CreatedAt = now
	pkg.UpdatedAt = now
	return nil
}

func (m *MemoryPackageRepository) DeletePackage(_ context.Context, trackingNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pkgs, trackingNumber)
	return nil
}

func (m *MemoryPackageRepository) UpdateStatus(_ context.Context, trackingNumber string, status domain.PackageStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.pkgs[trackingNumber]
	if !ok {
		return fmt.Errorf("update status %q: %w", trackingNumber, domain.ErrPackageNotFound)
	}
	e.pkg.Status = status
	e.pkg.UpdatedAt = m.now()
	m.pkgs[trackingNumber] = e
	return nil
}

func (m *MemoryPackageRepository) UpdateVisitOrder(_ context.Context, assignments []domain.VisitAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, a := range assignments {
		e, ok := m.pkgs[a.TrackingNumber]
		if !ok {
			continue
		}
		idx := a.VisitIndex
		e.pkg.VisitIndex = &idx
		e.pkg.UpdatedAt = now
		m.pkgs[a.TrackingNumber] = e
	}
	return nil
}

func (m *MemoryPackageRepository) Stats(_ context.Context) (domain.PackageStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := domain.PackageStats{Total: len(m.pkgs)}
	for _, e := range m.pkgs {
		if e.pkg.Status == domain.StatusDelivered {
			stats.Delivered++
		}
	}
	stats.Pending = stats.Total - stats.Delivered
	return stats, nil
}

func (m *MemoryPackageRepository) Search(_ context.Context, query string) ([]*domain.Package, error) {
	q := strings.ToLower(query)
	return m.collect(func(p *domain.Package) bool { return matchesQuery(p, q) }), nil
}

func (m *MemoryPackageRepository) ListByVisitOrder(_ context.Context) ([]*domain.Package, error) {
	pkgs := m.collect(func(p *domain.Package) bool { return p.VisitIndex != nil })
	slices.SortStableFunc(pkgs, func(a, b *domain.Package) int {
		if *a.VisitIndex != *b.VisitIndex {
			return *a.VisitIndex - *b.VisitIndex
		}
		return strings.Compare(a.TrackingNumber, b.TrackingNumber)
	})
	return pkgs, nil
}

func (m *MemoryPackageRepository) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pkgs = make(map[string]memoryEntry)
	return nil
}

// collect returns matching packages in insertion order.
func (m *MemoryPackageRepository) collect(match func(*domain.Package) bool) []*domain.Package {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]memoryEntry, 0, len(m.pkgs))
	for _, e := range m.pkgs {
		if match(&e.pkg) {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b memoryEntry) int { return a.seq - b.seq })

	out := make([]*domain.Package, 0, len(entries))
	for i := range entries {
		out = append(out, clonePackage(&entries[i].pkg))
	}
	return out
}

func clonePackage(p *domain.Package) *domain.Package {
	c := *p
	if p.Lat != nil {
		v := *p.Lat
		c.Lat = &v
	}
	if p.Lon != nil {
		v := *p.Lon
		c.Lon = &v
	}
	if p.VisitIndex != nil {
		v := *p.VisitIndex
		c.VisitIndex = &v
	}
	return &c
}
