package dto

import (
	"time"

	"tms-load-service/internal/domain"
)

// CreateBookingRequest accepts dates as YYYY-MM-DD or RFC 3339.
type CreateBookingRequest struct {
	EquipmentID      string `json:"equipment_id"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	PickupLocation   string `json:"pickup_location"`
	DeliveryLocation string `json:"delivery_location"`
	Notes            string `json:"notes"`
}

type BookingResponse struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	EquipmentID      string    `json:"equipment_id"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	DailyRate        string    `json:"daily_rate"`
	TotalCost        string    `json:"total_cost"`
	Status           string    `json:"status"`
	PickupLocation   string    `json:"pickup_location"`
	DeliveryLocation string    `json:"delivery_location"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func FromBooking(b domain.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID,
		TenantID:         b.TenantID,
		EquipmentID:      b.EquipmentID,
		StartDate:        b.StartDate,
		EndDate:          b.EndDate,
		DailyRate:        money(b.DailyRate),
		TotalCost:        money(b.TotalCost),
		Status:           string(b.Status),
		PickupLocation:   b.PickupLocation,
		DeliveryLocation: b.DeliveryLocation,
		Notes:            b.Notes,
		CreatedAt:        b.CreatedAt,
	}
}
