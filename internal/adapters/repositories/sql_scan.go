package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"tms-load-service/internal/domain"

	"github.com/shopspring/decimal"
)

// SQLite has no native timestamp type; times are stored as RFC3339 text in UTC.
const timeLayout = time.RFC3339Nano

const loadColumns = `
	id,
	tenant_id,
	order_number,
	status,
	equipment_id,
	confirmed_rate,
	total_cost,
	pickup_time_planned,
	pickup_time_actual,
	delivery_time_planned,
	delivery_time_actual,
	invoiced_at,
	created_at,
	updated_at,
	version
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoad(row rowScanner) (domain.Load, error) {
	var (
		l                    domain.Load
		status               string
		confirmedRate, cost  decimal.NullDecimal
		pickupPlanned        sql.NullString
		pickupActual         sql.NullString
		deliveryPlanned      sql.NullString
		deliveryActual       sql.NullString
		invoicedAt           sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(
		&l.ID,
		&l.TenantID,
		&l.OrderNumber,
		&status,
		&l.EquipmentID,
		&confirmedRate,
		&cost,
		&pickupPlanned,
		&pickupActual,
		&deliveryPlanned,
		&deliveryActual,
		&invoicedAt,
		&createdAt,
		&updatedAt,
		&l.Version,
	)
	if err != nil {
		return domain.Load{}, err
	}

	l.Status = domain.LoadStatus(status)
	if confirmedRate.Valid {
		l.ConfirmedRate = &confirmedRate.Decimal
	}
	if cost.Valid {
		l.TotalCost = &cost.Decimal
	}

	for _, f := range []struct {
		src sql.NullString
		dst **time.Time
	}{
		{pickupPlanned, &l.PickupTimePlanned},
		{pickupActual, &l.PickupTimeActual},
		{deliveryPlanned, &l.DeliveryTimePlanned},
		{deliveryActual, &l.DeliveryTimeActual},
		{invoicedAt, &l.InvoicedAt},
	} {
		if *f.dst, err = parseNullTime(f.src); err != nil {
			return domain.Load{}, fmt.Errorf("load %s: %w", l.ID, err)
		}
	}

	if l.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return domain.Load{}, fmt.Errorf("load %s: created_at: %w", l.ID, err)
	}
	if l.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return domain.Load{}, fmt.Errorf("load %s: updated_at: %w", l.ID, err)
	}

	return l, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
