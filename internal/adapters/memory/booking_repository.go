package memory

import (
	"context"
	"sync"

	"tms-load-service/internal/domain"
)

type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[string]domain.Booking)}
}

func (r *BookingRepository) CreateBooking(ctx context.Context, b domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return domain.NewRepositoryError("create booking", err)
	}
	r.mu.Lock()
	r.bookings[b.ID] = b
	r.mu.Unlock()
	return nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, tenantID string, bookingID string) (domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[bookingID]
	if !ok || b.TenantID != tenantID {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

// EquipmentCatalog is a fixed set of equipment keyed by id.
type EquipmentCatalog struct {
	items map[string]domain.Equipment
}

func NewEquipmentCatalog(items ...domain.Equipment) *EquipmentCatalog {
	m := make(map[string]domain.Equipment, len(items))
	for _, e := range items {
		m[e.ID] = e
	}
	return &EquipmentCatalog{items: m}
}

func (c *EquipmentCatalog) GetEquipment(ctx context.Context, tenantID string, equipmentID string) (domain.Equipment, error) {
	e, ok := c.items[equipmentID]
	if !ok || e.TenantID != tenantID {
		return domain.Equipment{}, domain.ErrNotFound
	}
	return e, nil
}
