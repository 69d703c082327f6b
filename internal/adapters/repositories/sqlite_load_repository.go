package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tms-load-service/internal/domain"
)

// SQLite-backed implementation of the LoadRepository port.
type SqliteLoadRepository struct{ DB *sql.DB }

func NewSqliteLoadRepository(db *sql.DB) *SqliteLoadRepository {
	return &SqliteLoadRepository{DB: db}
}

// Return the tenant's loads. The requests scope narrows to pending loads.
func (s *SqliteLoadRepository) ListLoads(ctx context.Context, tenantID string, scope domain.Scope) ([]domain.Load, error) {
	if s.DB == nil {
		return nil, domain.NewRepositoryError("list loads", errors.New("sqlite load repository: DB is nil"))
	}

	query := `SELECT` + loadColumns + `FROM loads WHERE tenant_id = ?`
	args := []any{tenantID}
	if scope == domain.ScopeRequests {
		query += ` AND status = ?`
		args = append(args, string(domain.StatusPending))
	}
	query += ` ORDER BY id;`

	loads, err := s.queryLoads(ctx, query, args...)
	if err != nil {
		return nil, domain.NewRepositoryError("list loads", err)
	}
	return loads, nil
}

func (s *SqliteLoadRepository) ListLoadsByStatus(ctx context.Context, tenantID string, status domain.LoadStatus) ([]domain.Load, error) {
	if s.DB == nil {
		return nil, domain.NewRepositoryError("list loads by status", errors.New("sqlite load repository: DB is nil"))
	}

	query := `SELECT` + loadColumns + `FROM loads WHERE tenant_id = ? AND status = ? ORDER BY id;`
	loads, err := s.queryLoads(ctx, query, tenantID, string(status))
	if err != nil {
		return nil, domain.NewRepositoryError("list loads by status", err)
	}
	return loads, nil
}

func (s *SqliteLoadRepository) GetLoad(ctx context.Context, tenantID string, loadID string) (domain.Load, error) {
	if s.DB == nil {
		return domain.Load{}, domain.NewRepositoryError("get load", errors.New("sqlite load repository: DB is nil"))
	}

	query := `SELECT` + loadColumns + `FROM loads WHERE tenant_id = ? AND id = ?;`
	l, err := scanLoad(s.DB.QueryRowContext(ctx, query, tenantID, loadID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Load{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Load{}, domain.NewRepositoryError("get load", err)
	}
	return l, nil
}

// Persist the new state only if the stored version still equals expectedVersion.
func (s *SqliteLoadRepository) UpdateLoadStatus(ctx context.Context, next domain.Load, expectedVersion int64) error {
	if s.DB == nil {
		return domain.NewRepositoryError("update load status", errors.New("sqlite load repository: DB is nil"))
	}

	query := `
	UPDATE loads SET
		status = ?,
		pickup_time_actual = ?,
		delivery_time_actual = ?,
		invoiced_at = ?,
		updated_at = ?,
		version = ?
	WHERE id = ? AND tenant_id = ? AND version = ?;
	`
	res, err := s.DB.ExecContext(ctx, query,
		string(next.Status),
		nullTime(next.PickupTimeActual),
		nullTime(next.DeliveryTimeActual),
		nullTime(next.InvoicedAt),
		formatTime(next.UpdatedAt),
		next.Version,
		next.ID,
		next.TenantID,
		expectedVersion,
	)
	if err != nil {
		return domain.NewRepositoryError("update load status", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewRepositoryError("update load status", err)
	}
	if n == 1 {
		return nil
	}

	var actual int64
	err = s.DB.QueryRowContext(ctx,
		`SELECT version FROM loads WHERE id = ? AND tenant_id = ?;`,
		next.ID, next.TenantID,
	).Scan(&actual)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return domain.NewRepositoryError("update load status", err)
	}
	return &domain.VersionConflictError{LoadID: next.ID, Expected: expectedVersion, Actual: actual}
}

// InsertLoad stores a new load. Load creation belongs to the order flow, so
// this is used by seeding and tests rather than through the port.
func (s *SqliteLoadRepository) InsertLoad(ctx context.Context, l domain.Load) error {
	if err := insertLoad(ctx, s.DB, l); err != nil {
		return domain.NewRepositoryError("insert load", err)
	}
	return nil
}

func (s *SqliteLoadRepository) queryLoads(ctx context.Context, query string, args ...any) ([]domain.Load, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loads table: %w", err)
	}
	defer rows.Close()

	loads := make([]domain.Load, 0, 64)
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		loads = append(loads, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}

	return loads, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertLoad(ctx context.Context, db execer, l domain.Load) error {
	query := `
	INSERT OR REPLACE INTO loads (` + loadColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := db.ExecContext(ctx, query,
		l.ID,
		l.TenantID,
		l.OrderNumber,
		string(l.Status),
		l.EquipmentID,
		nullDecimal(l.ConfirmedRate),
		nullDecimal(l.TotalCost),
		nullTime(l.PickupTimePlanned),
		nullTime(l.PickupTimeActual),
		nullTime(l.DeliveryTimePlanned),
		nullTime(l.DeliveryTimeActual),
		nullTime(l.InvoicedAt),
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
		l.Version,
	)
	if err != nil {
		return fmt.Errorf("insert load id=%s: %w", l.ID, err)
	}
	return nil
}
