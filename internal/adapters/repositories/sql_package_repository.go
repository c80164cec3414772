package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"
)

// PostgreSQL-backed implementation of the PackageRepository port (pgx stdlib driver).
type SQLPackageRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSQLPackageRepository(db *sql.DB) *SQLPackageRepository {
	return &SQLPackageRepository{DB: db, Now: time.Now}
}

const sqlPackageColumns = `
		tracking_number,
		address,
		lat,
		lon,
		status,
		visit_index,
		created_at,
		updated_at`

func (s *SQLPackageRepository) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *SQLPackageRepository) ListPackages(
	ctx context.Context,
	filter ports.PackageFilter,
) (_ []*domain.Package, err error) {
	defer obs.Time(ctx, "packages.sql.ListPackages")(&err)

	if s.DB == nil {
		return nil, errors.New("sql package repository: DB is nil")
	}

	query := `SELECT` + sqlPackageColumns + ` FROM packages`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY seq;`

	pkgs, err := s.queryPackages(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return pkgs, nil
}

func (s *SQLPackageRepository) GetPackage(ctx context.Context, trackingNumber string) (*domain.Package, error) {
	if s.DB == nil {
		return nil, errors.New("sql package repository: DB is nil")
	}

	query := `SELECT` + sqlPackageColumns + ` FROM packages WHERE tracking_number = $1;`
	pkg, err := scanSQLPackage(s.DB.QueryRowContext(ctx, query, trackingNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get package %q: %w", trackingNumber, domain.ErrPackageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get package %q: %w", trackingNumber, err)
	}
	return pkg, nil
}

func (s *SQLPackageRepository) SavePackage(ctx context.Context, pkg *domain.Package) error {
	if s.DB == nil {
		return errors.New("sql package repository: DB is nil")
	}
	if pkg == nil || strings.TrimSpace(pkg.TrackingNumber) == "" {
		return errors.New("save package: tracking number must not be empty")
	}

	now := s.now().UTC()
	createdAt := pkg.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	status := pkg.Status
	if status == "" {
		status = domain.StatusPending
	}

	query := `
	INSERT INTO packages (` + sqlPackageColumns + `
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (tracking_number) DO UPDATE
	SET address = EXCLUDED.address,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		status = EXCLUDED.status,
		visit_index = EXCLUDED.visit_index,
		updated_at = EXCLUDED.updated_at
	RETURNING created_at;
	`

	var storedCreatedAt time.Time
	err := s.DB.QueryRowContext(ctx, query,
		pkg.TrackingNumber,
		pkg.Address,
		nullFloat(pkg.Lat),
		nullFloat(pkg.Lon),
		string(status),
		nullInt(pkg.VisitIndex),
		createdAt,
		now,
	).Scan(&storedCreatedAt)
	if err != nil {
		return fmt.Errorf("save package %q: %w", pkg.TrackingNumber, err)
	}

	pkg.Status = status
	pkg.CreatedAt = storedCreatedAt
	pkg.UpdatedAt = now
	return nil
}

// Insert a new package; domain.ErrDuplicatePackage when the tracking number is taken.
func (s *SQLPackageRepository) InsertPackage(ctx context.Context, pkg *domain.Package) error {
	if s.DB == nil {
		return errors.New("sql package repository: DB is nil")
	}
	if pkg == nil || strings.TrimSpace(pkg.TrackingNumber) == "" {
		return errors.New("insert package: tracking number must not be empty")
	}

	now := s.now().UTC()
	status := pkg.Status
	if status == "" {
		status = domain.StatusPending
	}

	res, err := s.DB.ExecContext(ctx, `
	INSERT INTO packages (`+sqlPackageColumns+`
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (tracking_number) DO NOTHING;
	`,
		pkg.TrackingNumber,
		pkg.Address,
		nullFloat(pkg.Lat),
		nullFloat(pkg.Lon),
		string(status),
		nullInt(pkg.VisitIndex),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert package %q: %w", pkg.TrackingNumber, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert package %q: rows affected: %w", pkg.TrackingNumber, err)
	}
	if n == 0 {
		return fmt.Errorf("insert package %q: %w", pkg.TrackingNumber, domain.ErrDuplicatePackage)
	}

	pkg.Status = status
	pkg.CreatedAt = now
	pkg.UpdatedAt = now
	return nil
}

func (s *SQLPackageRepository) DeletePackage(ctx context.Context, trackingNumber string) error {
	if s.DB == nil {
		return errors.New("sql package repository: DB is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM packages WHERE tracking_number = $1;`, trackingNumber); err != nil {
		return fmt.Errorf("delete package %q: %w", trackingNumber, err)
	}
	return nil
}

func (s *SQLPackageRepository) UpdateStatus(ctx context.Context, trackingNumber string, status domain.PackageStatus) error {
	if s.DB == nil {
		return errors.New("sql package repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE packages SET status = $1, updated_at = $2 WHERE tracking_number = $3;`,
		string(status), s.now().UTC(), trackingNumber,
	)
	if err != nil {
		return fmt.Errorf("update status %q: %w", trackingNumber, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status %q: rows affected: %w", trackingNumber, err)
	}
	if n == 0 {
		return fmt.Errorf("update status %q: %w", trackingNumber, domain.ErrPackageNotFound)
	}
	return nil
}

// Persist visit indexes with a single UPDATE ... FROM unnest(...) statement.
func (s *SQLPackageRepository) UpdateVisitOrder(
	ctx context.Context,
	assignments []domain.VisitAssignment,
) (err error) {
	defer obs.Time(ctx, "packages.sql.UpdateVisitOrder")(&err)

	if s.DB == nil {
		return errors.New("sql package repository: DB is nil")
	}
	if len(assignments) == 0 {
		return nil
	}

	trackingNumbers := make([]string, 0, len(assignments))
	indexes := make([]int32, 0, len(assignments))
	for _, a := range assignments {
		trackingNumbers = append(trackingNumbers, a.TrackingNumber)
		indexes = append(indexes, int32(a.VisitIndex))
	}

	q := `
	UPDATE packages AS p
	SET visit_index = v.visit_index,
		updated_at = $3
	FROM unnest($1::text[], $2::int[]) AS v(tracking_number, visit_index)
	WHERE p.tracking_number = v.tracking_number;
	`
	if _, err := s.DB.ExecContext(ctx, q, trackingNumbers, indexes, s.now().UTC()); err != nil {
		return fmt.Errorf("update visit order: %w", err)
	}
	return nil
}

func (s *SQLPackageRepository) Stats(ctx context.Context) (domain.PackageStats, error) {
	if s.DB == nil {
		return domain.PackageStats{}, errors.New("sql package repository: DB is nil")
	}

	var total, delivered int
	err := s.DB.QueryRowContext(ctx, `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = $1)
	FROM packages;
	`, string(domain.StatusDelivered)).Scan(&total, &delivered)
	if err != nil {
		return domain.PackageStats{}, fmt.Errorf("package stats: %w", err)
	}

	return domain.PackageStats{Total: total, Delivered: delivered, Pending: total - delivered}, nil
}

func (s *SQLPackageRepository) Search(ctx context.Context, query string) ([]*domain.Package, error) {
	if s.DB == nil {
		return nil, errors.New("sql package repository: DB is nil")
	}

	// lower() depends on the database collation; matching runs in Go like the other stores.
	pkgs, err := s.queryPackages(ctx, `SELECT`+sqlPackageColumns+` FROM packages ORDER BY seq;`)
	if err != nil {
		return nil, fmt.Errorf("search packages %q: %w", query, err)
	}
	return filterPackages(pkgs, query), nil
}

func (s *SQLPackageRepository) ListByVisitOrder(ctx context.Context) ([]*domain.Package, error) {
	if s.DB == nil {
		return nil, errors.New("sql package repository: DB is nil")
	}

	pkgs, err := s.queryPackages(ctx, `SELECT`+sqlPackageColumns+`
	FROM packages
	WHERE visit_index IS NOT NULL
	ORDER BY visit_index, tracking_number;
	`)
	if err != nil {
		return nil, fmt.Errorf("list packages by visit order: %w", err)
	}
	return pkgs, nil
}

func (s *SQLPackageRepository) Clear(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("sql package repository: DB is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM packages;`); err != nil {
		return fmt.Errorf("clear packages: %w", err)
	}
	return nil
}

func (s *SQLPackageRepository) queryPackages(ctx context.Context, query string, args ...any) ([]*domain.Package, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query packages table: %w", err)
	}
	defer rows.Close()

	packages := make([]*domain.Package, 0, 64)
	for rows.Next() {
		pkg, err := scanSQLPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		packages = append(packages, pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}

	return packages, nil
}

func scanSQLPackage(row rowScanner) (*domain.Package, error) {
	var (
		pkg        domain.Package
		status     string
		lat, lon   sql.NullFloat64
		visitIndex sql.NullInt64
	)

	if err := row.Scan(&pkg.TrackingNumber, &pkg.Address, &lat, &lon, &status, &visitIndex, &pkg.CreatedAt, &pkg.UpdatedAt); err != nil {
		return nil, err
	}

	pkg.Status = domain.PackageStatus(status)
	pkg.Lat = fromNullFloat(lat)
	pkg.Lon = fromNullFloat(lon)
	pkg.VisitIndex = fromNullInt(visitIndex)
	return &pkg, nil
}
