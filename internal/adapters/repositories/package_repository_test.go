package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/db"
	"courier-route-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock advances one second per call so creation order is unambiguous.
func tickingClock() func() time.Time {
	t := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newSqliteRepo(t *testing.T) ports.PackageRepository {
	t.Helper()
	ctx := context.Background()

	conn, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, InitSchema(ctx, conn))

	repo := NewSqlitePackageRepository(conn)
	repo.Now = tickingClock()
	return repo
}

func newMemoryRepo(t *testing.T) ports.PackageRepository {
	repo := NewMemoryPackageRepository()
	repo.Now = tickingClock()
	return repo
}

func newPostgresRepo(t *testing.T) ports.PackageRepository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	conn, err := db.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, InitPostgresSchema(ctx, conn))

	repo := NewSQLPackageRepository(conn)
	repo.Now = tickingClock()
	require.NoError(t, repo.Clear(ctx))
	return repo
}

func TestPackageRepositories(t *testing.T) {
	impls := map[string]func(t *testing.T) ports.PackageRepository{
		"memory":   newMemoryRepo,
		"sqlite":   newSqliteRepo,
		"postgres": newPostgresRepo,
	}

	for name, newRepo := range impls {
		t.Run(name, func(t *testing.T) {
			t.Run("save and get", func(t *testing.T) { testSaveAndGet(t, newRepo(t)) })
			t.Run("upsert keeps created_at", func(t *testing.T) { testUpsert(t, newRepo(t)) })
			t.Run("list by status", func(t *testing.T) { testListByStatus(t, newRepo(t)) })
			t.Run("update status", func(t *testing.T) { testUpdateStatus(t, newRepo(t)) })
			t.Run("visit order", func(t *testing.T) { testVisitOrder(t, newRepo(t)) })
			t.Run("stats search delete clear", func(t *testing.T) { testStatsSearchDelete(t, newRepo(t)) })
			t.Run("insertion order within one timestamp", func(t *testing.T) { testInsertionOrder(t, newRepo(t)) })
			t.Run("insert rejects duplicates", func(t *testing.T) { testInsertDuplicate(t, newRepo(t)) })
			t.Run("search folds unicode case", func(t *testing.T) { testSearchUnicode(t, newRepo(t)) })
		})
	}
}

func ptr[T any](v T) *T { return &v }

func testSaveAndGet(t *testing.T, repo ports.PackageRepository) {
	ctx := context.Background()

	pkg := &domain.Package{TrackingNumber: "TRK-1", Address: "Valiasr St", Lat: ptr(35.7595), Lon: ptr(51.3801)}
	require.NoError(t, repo.SavePackage(ctx, pkg))
	assert.Equal(t, domain.StatusPending, pkg.Status)
	assert.False(t, pkg.CreatedAt.IsZero())

	got, err := repo.GetPackage(ctx, "TRK-1")
	require.NoError(t, err)
	assert.Equal(t, "Valiasr St", got.Address)
	require.True(t, got.HasCoords())
	assert.InDelta(t, 35.7595, *got.Lat, 1e-9)
	assert.InDelta(t, 51.3801, *got.Lon, 1e-9)
	assert.Nil(t, got.VisitIndex)

	noCoords := &domain.Package{TrackingNumber: "TRK-2", Address: "Unknown alley"}
	require.NoError(t, repo.SavePackage(ctx, noCoords))
	got, err = repo.GetPackage(ctx, "TRK-2")
	require.NoError(t, err)
	assert.False(t, got.HasCoords())

	_, err = repo.GetPackage(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func testUpsert(t *testing.T, repo ports.PackageRepository) {
	ctx := context.Background()

	pkg := &domain.Package{TrackingNumber: "TRK-1", Address: "old"}
	require.NoError(t, repo.SavePackage(ctx, pkg))
	created := pkg.CreatedAt

	update := &domain.Package{TrackingNumber: "TRK-1", Address: "new", Status: domain.StatusDelivered}
	require.NoError(t, repo.SavePackage(ctx, update))

	got, err := repo.GetPackage(ctx, "TRK-1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Address)
	assert.Equal(t, domain.StatusDelivered, got.Status)
	assert.True(t, got.CreatedAt.Equal(created), "created_at %v, want %v", got.CreatedAt, created)
	assert.True(t, got.UpdatedAt.After(created))
}

func testListByStatus(t *testing.T, repo ports.PackageRepository) {
	ctx := context.Background()

	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "C", Address: "a"}))
	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "A", Address: "b", Status: domain.StatusDelivered}))
	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "B", Address: "c"}))

	all, err := repo.ListPackages(ctx, ports.PackageFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, trackingNumbers(all))

	pending, err := repo.ListPackages(ctx, ports.PackageFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, trackingNumbers(pending))

	delivered, err := repo.ListPackages(ctx, ports.PackageFilter{Status: domain.StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, trackingNumbers(delivered))
}

func testUpdateStatus(t *testing.T, repo ports.PackageRepository) {
	ctx := context.Background()

	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "TRK-1", Address: "a"}))
	require.NoError(t, repo.UpdateStatus(ctx, "TRK-1", domain.StatusDelivered))

	got, err := repo.GetPackage(ctx, "TRK-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got.Status)

	err = repo.UpdateStatus(ctx, "missing", domain.StatusDelivered)
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func testVisitOrder(t *testing.T, repo ports.PackageRepository) {
	ctx := context.Background()

	for _, tn := range []string{"A", "B", "C"} {
		require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: tn, Address: tn}))
	}

	err := repo.UpdateVisitOrder(ctx, []domain.VisitAssignment{
		{TrackingNumber: "C", VisitIndex: 1},
		{TrackingNumber: "A", VisitIndex: 2},
		{TrackingNumber: "ghost", VisitIndex: 3},
	})
	require.NoError(t, err)

	ordered, err := repo.ListByVisitOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, trackingNumbers(ordered))
	assert.Equal(t, 1, *ordered[0].VisitIndex)
	assert.Equal(t, 2, *ordered[1].VisitIndex)

	_, err = repo.GetPackage(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)

	require.NoError(t, repo.UpdateVisitOrder(ctx, nil))
}

func testStatsSearchDelete(t *testing.T, repo ports.PackageRepository) {
	ctx := context.Background()

	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "IR-100", Address: "Enghelab Square"}))
	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "IR-200", Address: "Tajrish", Status: domain.StatusDelivered}))
	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "XX-300", Address: "Azadi Tower"}))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageStats{Total: 3, Delivered: 1, Pending: 2}, stats)

	found, err := repo.Search(ctx, "ir-")
	require.NoError(t, err)
	assert.Equal(t, []string{"IR-100", "IR-200"}, trackingNumbers(found))

	found, err = repo.Search(ctx, "tower")
	require.NoError(t, err)
	assert.Equal(t, []string{"XX-300"}, trackingNumbers(found))

	require.NoError(t, repo.DeletePackage(ctx, "IR-100"))
	require.NoError(t, repo.DeletePackage(ctx, "IR-100"))
	_, err = repo.GetPackage(ctx, "IR-100")
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)

	require.NoError(t, repo.Clear(ctx))
	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageStats{}, stats)
}

// freezeClock makes every write share one timestamp.
func freezeClock(repo ports.PackageRepository) {
	at := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	now := func() time.Time { return at }
	switch r := repo.(type) {
	case *MemoryPackageRepository:
		r.Now = now
	case *SqlitePackageRepository:
		r.Now = now
	case *SQLPackageRepository:
		r.Now = now
	}
}

func testInsertionOrder(t *testing.T, repo ports.PackageRepository) {
	ctx := context.Background()
	freezeClock(repo)

	for _, tr := range []string{"Z9", "A1", "M5"} {
		require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: tr, Address: tr + " Street"}))
	}
	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "Z9", Address: "Z9 Street, unit 2"}))

	all, err := repo.ListPackages(ctx, ports.PackageFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Z9", "A1", "M5"}, trackingNumbers(all))

	pending, err := repo.ListPackages(ctx, ports.PackageFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []string{"Z9", "A1", "M5"}, trackingNumbers(pending))

	found, err := repo.Search(ctx, "street")
	require.NoError(t, err)
	assert.Equal(t, []string{"Z9", "A1", "M5"}, trackingNumbers(found))
}

func testInsertDuplicate(t *testing.T, repo ports.PackageRepository) {
	ctx := context.Background()

	pkg := &domain.Package{TrackingNumber: "TRK-1", Address: "first", Lat: ptr(35.7), Lon: ptr(51.4)}
	require.NoError(t, repo.InsertPackage(ctx, pkg))
	assert.Equal(t, domain.StatusPending, pkg.Status)
	assert.False(t, pkg.CreatedAt.IsZero())

	err := repo.InsertPackage(ctx, &domain.Package{TrackingNumber: "TRK-1", Address: "second"})
	assert.ErrorIs(t, err, domain.ErrDuplicatePackage)

	got, err := repo.GetPackage(ctx, "TRK-1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Address)
	assert.True(t, got.HasCoords())
}

func testSearchUnicode(t *testing.T, repo ports.PackageRepository) {
	ctx := context.Background()

	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "DE-1", Address: "Ünter den Linden 5"}))
	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "FR-1", Address: "Rue de l'ÉCOLE"}))

	found, err := repo.Search(ctx, "ünter")
	require.NoError(t, err)
	assert.Equal(t, []string{"DE-1"}, trackingNumbers(found))

	found, err = repo.Search(ctx, "école")
	require.NoError(t, err)
	assert.Equal(t, []string{"FR-1"}, trackingNumbers(found))
}

func trackingNumbers(pkgs []*domain.Package) []string {
	out := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, p.TrackingNumber)
	}
	return out
}

func TestSeedFromJSON(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	path := filepath.Join(dir, "packages.json")
	seed := `[
		{"tracking_number": "TRK-1", "address": "Azadi Square", "lat": 35.6892, "lon": 51.389},
		{"tracking_number": "TRK-2", "address": "Valiasr St", "status": "delivered"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	repo := newMemoryRepo(t)
	require.NoError(t, SeedFromJSON(ctx, repo, path))

	pkgs, err := repo.ListPackages(ctx, ports.PackageFilter{})
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.True(t, pkgs[0].HasCoords())
	assert.False(t, pkgs[1].HasCoords())
	assert.Equal(t, domain.StatusDelivered, pkgs[1].Status)
}

func TestLoadSeedRejectsInvalidItems(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"empty tracking": `[{"tracking_number": " ", "address": "x"}]`,
		"empty address":  `[{"tracking_number": "A", "address": ""}]`,
		"duplicate":      `[{"tracking_number": "A", "address": "x"}, {"tracking_number": "A", "address": "y"}]`,
		"half coords":    `[{"tracking_number": "A", "address": "x", "lat": 1}]`,
		"bad status":     `[{"tracking_number": "A", "address": "x", "status": "lost"}]`,
		"out of range":   `[{"tracking_number": "A", "address": "x", "lat": 95, "lon": 0}]`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := LoadSeed(path)
			assert.Error(t, err)
		})
	}
}
