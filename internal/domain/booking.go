package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a pre-dispatch reservation of equipment for a date range.
// DailyRate is copied from the equipment when the booking is created and
// TotalCost is derived from it.
type Booking struct {
	ID               string
	TenantID         string
	EquipmentID      string
	StartDate        time.Time
	EndDate          time.Time
	DailyRate        decimal.Decimal
	TotalCost        decimal.Decimal
	Status           BookingStatus
	PickupLocation   string
	DeliveryLocation string
	Notes            string
	CreatedAt        time.Time
}

// Equipment is the read-only view of a rentable unit needed for pricing.
type Equipment struct {
	ID        string
	TenantID  string
	Name      string
	DailyRate decimal.Decimal
}
