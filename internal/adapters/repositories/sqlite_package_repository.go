package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
)

// SQLite-backed implementation of the PackageRepository port.
// Timestamps are stored as unix milliseconds.
type SqlitePackageRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSqlitePackageRepository(db *sql.DB) *SqlitePackageRepository {
	return &SqlitePackageRepository{DB: db, Now: time.Now}
}

const sqlitePackageColumns = `
		tracking_number,
		address,
		lat,
		lon,
		status,
		visit_index,
		created_at,
		updated_at`

func (s *SqlitePackageRepository) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Return packages matching the filter in insertion order.
func (s *SqlitePackageRepository) ListPackages(ctx context.Context, filter ports.PackageFilter) ([]*domain.Package, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite package repository: DB is nil")
	}

	query := `SELECT` + sqlitePackageColumns + ` FROM packages`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY seq;`

	pkgs, err := s.queryPackages(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return pkgs, nil
}

func (s *SqlitePackageRepository) GetPackage(ctx context.Context, trackingNumber string) (*domain.Package, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite package repository: DB is nil")
	}

	query := `SELECT` + sqlitePackageColumns + ` FROM packages WHERE tracking_number = ?;`
	pkg, err := scanSqlitePackage(s.DB.QueryRowContext(ctx, query, trackingNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get package %q: %w", trackingNumber, domain.ErrPackageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get package %q: %w", trackingNumber, err)
	}
	return pkg, nil
}

// Insert or update a package. CreatedAt is kept from the first insert.
func (s *SqlitePackageRepository) SavePackage(ctx context.Context, pkg *domain.Package) error {
	if s.DB == nil {
		return errors.New("sqlite package repository: DB is nil")
	}
	if pkg == nil || strings.TrimSpace(pkg.TrackingNumber) == "" {
		return errors.New("save package: tracking number must not be empty")
	}

	now := s.now()
	createdAt := pkg.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	status := pkg.Status
	if status == "" {
		status = domain.StatusPending
	}

	query := `
	INSERT INTO packages (` + sqlitePackageColumns + `
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (tracking_number) DO UPDATE
	SET address = excluded.address,
		lat = excluded.lat,
		lon = excluded.lon,
		status = excluded.status,
		visit_index = excluded.visit_index,
		updated_at = excluded.updated_at
	RETURNING created_at;
	`

	var storedCreatedAt int64
	err := s.DB.QueryRowContext(ctx, query,
		pkg.TrackingNumber,
		pkg.Address,
		nullFloat(pkg.Lat),
		nullFloat(pkg.Lon),
		string(status),
		nullInt(pkg.VisitIndex),
		createdAt.UnixMilli(),
		now.UnixMilli(),
	).Scan(&storedCreatedAt)
	if err != nil {
		return fmt.Errorf("save package %q: %w", pkg.TrackingNumber, err)
	}

	pkg.Status = status
	pkg.CreatedAt = time.UnixMilli(storedCreatedAt)
	pkg.UpdatedAt = time.UnixMilli(now.UnixMilli())
	return nil
}

// Insert a new package; domain.ErrDuplicatePackage when the tracking number is taken.
func (s *SqlitePackageRepository) InsertPackage(ctx context.Context, pkg *domain.Package) error {
	if s.DB == nil {
		return errors.New("sqlite package repository: DB is nil")
	}
	if pkg == nil || strings.TrimSpace(pkg.TrackingNumber) == "" {
		return errors.New("insert package: tracking number must not be empty")
	}

	now := s.now()
	status := pkg.Status
	if status == "" {
		status = domain.StatusPending
	}

	res, err := s.DB.ExecContext(ctx, `
	INSERT INTO packages (`+sqlitePackageColumns+`
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (tracking_number) DO NOTHING;
	`,
		pkg.TrackingNumber,
		pkg.Address,
		nullFloat(pkg.Lat),
		nullFloat(pkg.Lon),
		string(status),
		nullInt(pkg.VisitIndex),
		now.UnixMilli(),
		now.UnixMilli(),
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
	pkg.CreatedAt = time.UnixMilli(now.UnixMilli())
	pkg.UpdatedAt = pkg.CreatedAt
	return nil
}

func (s *SqlitePackageRepository) DeletePackage(ctx context.Context, trackingNumber string) error {
	if s.DB == nil {
		return errors.New("sqlite package repository: DB is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM packages WHERE tracking_number = ?;`, trackingNumber); err != nil {
		return fmt.Errorf("delete package %q: %w", trackingNumber, err)
	}
	return nil
}

func (s *SqlitePackageRepository) UpdateStatus(ctx context.Context, trackingNumber string, status domain.PackageStatus) error {
	if s.DB == nil {
		return errors.New("sqlite package repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE packages SET status = ?, updated_at = ? WHERE tracking_number = ?;`,
		string(status), s.now().UnixMilli(), trackingNumber,
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

// Persist visit indexes in a single transaction.
func (s *SqlitePackageRepository) UpdateVisitOrder(ctx context.Context, assignments []domain.VisitAssignment) error {
	if s.DB == nil {
		return errors.New("sqlite package repository: DB is nil")
	}
	if len(assignments) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update visit order: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	UPDATE packages
	SET visit_index = ?,
		updated_at = ?
	WHERE tracking_number = ?;
	`)
	if err != nil {
		return fmt.Errorf("update visit order: db prepare: %w", err)
	}
	defer stmt.Close()

	now := s.now().UnixMilli()
	for _, a := range assignments {
		if _, err := stmt.ExecContext(ctx, a.VisitIndex, now, a.TrackingNumber); err != nil {
			return fmt.Errorf("update visit order %q: %w", a.TrackingNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update visit order commit: %w", err)
	}
	return nil
}

func (s *SqlitePackageRepository) Stats(ctx context.Context) (domain.PackageStats, error) {
	if s.DB == nil {
		return domain.PackageStats{}, errors.New("sqlite package repository: DB is nil")
	}

	var total, delivered int
	err := s.DB.QueryRowContext(ctx, `
	SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
	FROM packages;
	`, string(domain.StatusDelivered)).Scan(&total, &delivered)
	if err != nil {
		return domain.PackageStats{}, fmt.Errorf("package stats: %w", err)
	}

	return domain.PackageStats{Total: total, Delivered: delivered, Pending: total - delivered}, nil
}

func (s *SqlitePackageRepository) Search(ctx context.Context, query string) ([]*domain.Package, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite package repository: DB is nil")
	}

	// SQLite lower() folds ASCII only, so matching runs in Go.
	pkgs, err := s.queryPackages(ctx, `SELECT`+sqlitePackageColumns+` FROM packages ORDER BY seq;`)
	if err != nil {
		return nil, fmt.Errorf("search packages %q: %w", query, err)
	}
	return filterPackages(pkgs, query), nil
}

func (s *SqlitePackageRepository) ListByVisitOrder(ctx context.Context) ([]*domain.Package, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite package repository: DB is nil")
	}

	pkgs, err := s.queryPackages(ctx, `SELECT`+sqlitePackageColumns+`
	FROM packages
	WHERE visit_index IS NOT NULL
	ORDER BY visit_index, tracking_number;
	`)
	if err != nil {
		return nil, fmt.Errorf("list packages by visit order: %w", err)
	}
	return pkgs, nil
}

func (s *SqlitePackageRepository) Clear(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("sqlite package repository: DB is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM packages;`); err != nil {
		return fmt.Errorf("clear packages: %w", err)
	}
	return nil
}

func (s *SqlitePackageRepository) queryPackages(ctx context.Context, query string, args ...any) ([]*domain.Package, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query packages table: %w", err)
	}
	defer rows.Close()

	packages := make([]*domain.Package, 0, 64)
	for rows.Next() {
		pkg, err := scanSqlitePackage(rows)
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

func scanSqlitePackage(row rowScanner) (*domain.Package, error) {
	var (
		pkg                  domain.Package
		status               string
		lat, lon             sql.NullFloat64
		visitIndex           sql.NullInt64
		createdAt, updatedAt int64
	)

	if err := row.Scan(&pkg.TrackingNumber, &pkg.Address, &lat, &lon, &status, &visitIndex, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	pkg.Status = domain.PackageStatus(status)
	pkg.Lat = fromNullFloat(lat)
	pkg.Lon = fromNullFloat(lon)
	pkg.VisitIndex = fromNullInt(visitIndex)
	pkg.CreatedAt = time.UnixMilli(createdAt)
	pkg.UpdatedAt = time.UnixMilli(updatedAt)
	return &pkg, nil
}
