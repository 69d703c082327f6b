package ports

import (
	"context"
	"tms-load-service/internal/domain"
)

type BookingRepository interface {
	CreateBooking(ctx context.Context, b domain.Booking) error
	GetBooking(ctx context.Context, tenantID string, bookingID string) (domain.Booking, error)
}

// Read-only lookup of equipment pricing. Equipment CRUD lives elsewhere.
type EquipmentCatalog interface {
	GetEquipment(ctx context.Context, tenantID string, equipmentID string) (domain.Equipment, error)
}
