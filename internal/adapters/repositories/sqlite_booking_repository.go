package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tms-load-service/internal/domain"

	"github.com/shopspring/decimal"
)

// SQLite-backed implementation of the BookingRepository port.
type SqliteBookingRepository struct{ DB *sql.DB }

func NewSqliteBookingRepository(db *sql.DB) *SqliteBookingRepository {
	return &SqliteBookingRepository{DB: db}
}

func (s *SqliteBookingRepository) CreateBooking(ctx context.Context, b domain.Booking) error {
	if s.DB == nil {
		return domain.NewRepositoryError("create booking", errors.New("sqlite booking repository: DB is nil"))
	}

	query := `
	INSERT INTO bookings (
		id, tenant_id, equipment_id, start_date, end_date, daily_rate,
		total_cost, status, pickup_location, delivery_location, notes, created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := s.DB.ExecContext(ctx, query,
		b.ID,
		b.TenantID,
		b.EquipmentID,
		formatTime(b.StartDate),
		formatTime(b.EndDate),
		b.DailyRate.String(),
		b.TotalCost.StringFixed(2),
		string(b.Status),
		b.PickupLocation,
		b.DeliveryLocation,
		b.Notes,
		formatTime(b.CreatedAt),
	)
	if err != nil {
		return domain.NewRepositoryError("create booking", fmt.Errorf("insert booking id=%s: %w", b.ID, err))
	}
	return nil
}

func (s *SqliteBookingRepository) GetBooking(ctx context.Context, tenantID string, bookingID string) (domain.Booking, error) {
	if s.DB == nil {
		return domain.Booking{}, domain.NewRepositoryError("get booking", errors.New("sqlite booking repository: DB is nil"))
	}

	query := `
	SELECT
		id, tenant_id, equipment_id, start_date, end_date, daily_rate,
		total_cost, status, pickup_location, delivery_location, notes, created_at
	FROM bookings
	WHERE tenant_id = ? AND id = ?;
	`
	var (
		b                           domain.Booking
		status                      string
		startDate, endDate, created string
	)
	err := s.DB.QueryRowContext(ctx, query, tenantID, bookingID).Scan(
		&b.ID,
		&b.TenantID,
		&b.EquipmentID,
		&startDate,
		&endDate,
		&b.DailyRate,
		&b.TotalCost,
		&status,
		&b.PickupLocation,
		&b.DeliveryLocation,
		&b.Notes,
		&created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, domain.NewRepositoryError("get booking", err)
	}

	b.Status = domain.BookingStatus(status)
	for _, f := range []struct {
		src string
		dst *time.Time
	}{
		{startDate, &b.StartDate},
		{endDate, &b.EndDate},
		{created, &b.CreatedAt},
	} {
		if *f.dst, err = time.Parse(timeLayout, f.src); err != nil {
			return domain.Booking{}, domain.NewRepositoryError("get booking", fmt.Errorf("booking %s: %w", b.ID, err))
		}
	}
	return b, nil
}

// SQLite-backed implementation of the EquipmentCatalog port.
type SqliteEquipmentCatalog struct{ DB *sql.DB }

func NewSqliteEquipmentCatalog(db *sql.DB) *SqliteEquipmentCatalog {
	return &SqliteEquipmentCatalog{DB: db}
}

func (s *SqliteEquipmentCatalog) GetEquipment(ctx context.Context, tenantID string, equipmentID string) (domain.Equipment, error) {
	if s.DB == nil {
		return domain.Equipment{}, domain.NewRepositoryError("get equipment", errors.New("sqlite equipment catalog: DB is nil"))
	}

	var (
		e    domain.Equipment
		rate decimal.Decimal
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, daily_rate FROM equipment WHERE tenant_id = ? AND id = ?;`,
		tenantID, equipmentID,
	).Scan(&e.ID, &e.TenantID, &e.Name, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Equipment{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Equipment{}, domain.NewRepositoryError("get equipment", err)
	}
	e.DailyRate = rate
	return e, nil
}
