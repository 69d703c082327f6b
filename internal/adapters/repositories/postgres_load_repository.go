package repositories

import (
	"context"
	"errors"
	"fmt"

	"tms-load-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresSchema creates the loads table used by PostgresLoadRepository.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS loads (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	order_number TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN (
		'pending', 'planned', 'in_transit_pickup', 'at_pickup', 'in_transit_delivery',
		'at_delivery', 'delivered', 'invoiced', 'payment_overdue', 'paid'
	)),
	equipment_id TEXT NOT NULL DEFAULT '',
	confirmed_rate NUMERIC(14, 2),
	total_cost NUMERIC(14, 2),
	pickup_time_planned TIMESTAMPTZ,
	pickup_time_actual TIMESTAMPTZ,
	delivery_time_planned TIMESTAMPTZ,
	delivery_time_actual TIMESTAMPTZ,
	invoiced_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	version BIGINT NOT NULL DEFAULT 1 CHECK (version > 0)
);
CREATE INDEX IF NOT EXISTS idx_loads_tenant_status ON loads (tenant_id, status);
`

const pgLoadColumns = `
	id, tenant_id, order_number, status, equipment_id,
	confirmed_rate::text, total_cost::text,
	pickup_time_planned, pickup_time_actual,
	delivery_time_planned, delivery_time_actual,
	invoiced_at, created_at, updated_at, version
`

// PostgresLoadRepository implements the LoadRepository port on a pgx pool.
type PostgresLoadRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresLoadRepository(pool *pgxpool.Pool) *PostgresLoadRepository {
	return &PostgresLoadRepository{pool: pool}
}

// ApplySchema creates the loads table if it does not exist.
func (r *PostgresLoadRepository) ApplySchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

func (r *PostgresLoadRepository) ListLoads(ctx context.Context, tenantID string, scope domain.Scope) ([]domain.Load, error) {
	query := `SELECT` + pgLoadColumns + `FROM loads WHERE tenant_id = $1`
	args := []any{tenantID}
	if scope == domain.ScopeRequests {
		query += ` AND status = $2`
		args = append(args, string(domain.StatusPending))
	}
	query += ` ORDER BY id`

	loads, err := r.queryLoads(ctx, query, args...)
	if err != nil {
		return nil, domain.NewRepositoryError("list loads", err)
	}
	return loads, nil
}

func (r *PostgresLoadRepository) ListLoadsByStatus(ctx context.Context, tenantID string, status domain.LoadStatus) ([]domain.Load, error) {
	query := `SELECT` + pgLoadColumns + `FROM loads WHERE tenant_id = $1 AND status = $2 ORDER BY id`
	loads, err := r.queryLoads(ctx, query, tenantID, string(status))
	if err != nil {
		return nil, domain.NewRepositoryError("list loads by status", err)
	}
	return loads, nil
}

func (r *PostgresLoadRepository) GetLoad(ctx context.Context, tenantID string, loadID string) (domain.Load, error) {
	query := `SELECT` + pgLoadColumns + `FROM loads WHERE tenant_id = $1 AND id = $2`
	l, err := scanPgLoad(r.pool.QueryRow(ctx, query, tenantID, loadID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Load{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Load{}, domain.NewRepositoryError("get load", err)
	}
	return l, nil
}

// UpdateLoadStatus is a single conditional UPDATE; when no row matches, a
// follow-up read tells a missing load apart from a stale version.
func (r *PostgresLoadRepository) UpdateLoadStatus(ctx context.Context, next domain.Load, expectedVersion int64) error {
	const stmt = `
UPDATE loads SET
	status = $4,
	pickup_time_actual = $5,
	delivery_time_actual = $6,
	invoiced_at = $7,
	updated_at = $8,
	version = $9
WHERE id = $1 AND tenant_id = $2 AND version = $3`

	tag, err := r.pool.Exec(ctx, stmt,
		next.ID, next.TenantID, expectedVersion,
		string(next.Status),
		next.PickupTimeActual,
		next.DeliveryTimeActual,
		next.InvoicedAt,
		next.UpdatedAt,
		next.Version,
	)
	if err != nil {
		return pgWriteError("update load status", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var actual int64
	err = r.pool.QueryRow(ctx,
		`SELECT version FROM loads WHERE id = $1 AND tenant_id = $2`,
		next.ID, next.TenantID,
	).Scan(&actual)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return domain.NewRepositoryError("update load status", err)
	}
	return &domain.VersionConflictError{LoadID: next.ID, Expected: expectedVersion, Actual: actual}
}

// InsertLoad stores a new load or replaces an existing one.
func (r *PostgresLoadRepository) InsertLoad(ctx context.Context, l domain.Load) error {
	const stmt = `
INSERT INTO loads (
	id, tenant_id, order_number, status, equipment_id,
	confirmed_rate, total_cost,
	pickup_time_planned, pickup_time_actual,
	delivery_time_planned, delivery_time_actual,
	invoiced_at, created_at, updated_at, version
)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO UPDATE SET
	tenant_id = EXCLUDED.tenant_id,
	order_number = EXCLUDED.order_number,
	status = EXCLUDED.status,
	equipment_id = EXCLUDED.equipment_id,
	confirmed_rate = EXCLUDED.confirmed_rate,
	total_cost = EXCLUDED.total_cost,
	pickup_time_planned = EXCLUDED.pickup_time_planned,
	pickup_time_actual = EXCLUDED.pickup_time_actual,
	delivery_time_planned = EXCLUDED.delivery_time_planned,
	delivery_time_actual = EXCLUDED.delivery_time_actual,
	invoiced_at = EXCLUDED.invoiced_at,
	created_at = EXCLUDED.created_at,
	updated_at = EXCLUDED.updated_at,
	version = EXCLUDED.version`

	_, err := r.pool.Exec(ctx, stmt,
		l.ID, l.TenantID, l.OrderNumber, string(l.Status), l.EquipmentID,
		decimalText(l.ConfirmedRate), decimalText(l.TotalCost),
		l.PickupTimePlanned, l.PickupTimeActual,
		l.DeliveryTimePlanned, l.DeliveryTimeActual,
		l.InvoicedAt, l.CreatedAt, l.UpdatedAt, l.Version,
	)
	if err != nil {
		return pgWriteError("insert load", fmt.Errorf("insert load id=%s: %w", l.ID, err))
	}
	return nil
}

func (r *PostgresLoadRepository) queryLoads(ctx context.Context, query string, args ...any) ([]domain.Load, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loads table: %w", err)
	}
	defer rows.Close()

	loads := make([]domain.Load, 0, 64)
	for rows.Next() {
		l, err := scanPgLoad(rows)
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

func scanPgLoad(row pgx.Row) (domain.Load, error) {
	var (
		l             domain.Load
		status        string
		confirmedRate *string
		totalCost     *string
	)
	err := row.Scan(
		&l.ID, &l.TenantID, &l.OrderNumber, &status, &l.EquipmentID,
		&confirmedRate, &totalCost,
		&l.PickupTimePlanned, &l.PickupTimeActual,
		&l.DeliveryTimePlanned, &l.DeliveryTimeActual,
		&l.InvoicedAt, &l.CreatedAt, &l.UpdatedAt, &l.Version,
	)
	if err != nil {
		return domain.Load{}, err
	}

	l.Status = domain.LoadStatus(status)
	if l.ConfirmedRate, err = parseOptionalDecimal(confirmedRate); err != nil {
		return domain.Load{}, fmt.Errorf("load %s: confirmed_rate: %w", l.ID, err)
	}
	if l.TotalCost, err = parseOptionalDecimal(totalCost); err != nil {
		return domain.Load{}, fmt.Errorf("load %s: total_cost: %w", l.ID, err)
	}
	return l, nil
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// pgWriteError turns constraint violations into validation errors; anything
// else is a storage failure.
func pgWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23514", "23502":
			return &domain.ValidationError{Field: pgErr.ColumnName, Reason: "violates constraint " + pgErr.ConstraintName}
		}
	}
	return domain.NewRepositoryError(op, err)
}
