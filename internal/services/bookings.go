package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"tms-load-service/internal/domain"
	"tms-load-service/internal/platform/clock"
	"tms-load-service/internal/platform/metrics"
	"tms-load-service/internal/platform/obs"
	"tms-load-service/internal/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CreateBookingInput struct {
	TenantID         string    `validate:"required"`
	EquipmentID      string    `validate:"required"`
	StartDate        time.Time `validate:"required"`
	EndDate          time.Time `validate:"required"`
	PickupLocation   string    `validate:"required,max=500"`
	DeliveryLocation string    `validate:"required,max=500"`
	Notes            string    `validate:"max=2000"`
}

// BookingService creates equipment reservations priced from the equipment's
// current daily rate.
type BookingService struct {
	bookings  ports.BookingRepository
	equipment ports.EquipmentCatalog
	clock     clock.Clock
	metrics   *metrics.Collector
}

func NewBookingService(
	bookings ports.BookingRepository,
	equipment ports.EquipmentCatalog,
	clk clock.Clock,
	m *metrics.Collector,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		equipment: equipment,
		clock:     clk,
		metrics:   m,
	}
}

// Create validates the input, copies the equipment's daily rate onto the
// booking and stores it as pending with its computed total cost.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (_ domain.Booking, err error) {
	defer obs.Time(ctx, "bookings.Create")(&err)

	in.PickupLocation = strings.TrimSpace(in.PickupLocation)
	in.DeliveryLocation = strings.TrimSpace(in.DeliveryLocation)
	in.Notes = strings.TrimSpace(in.Notes)

	if err := validate.Struct(in); err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", validationFromValidator(err))
	}

	eq, err := s.equipment.GetEquipment(ctx, in.TenantID, in.EquipmentID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: equipment %s: %w", in.EquipmentID, err)
	}

	cost, err := ComputeBookingCost(in.StartDate, in.EndDate, eq.DailyRate)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	b := domain.Booking{
		ID:               uuid.NewString(),
		TenantID:         in.TenantID,
		EquipmentID:      eq.ID,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		DailyRate:        eq.DailyRate,
		TotalCost:        cost,
		Status:           domain.BookingStatusPending,
		PickupLocation:   in.PickupLocation,
		DeliveryLocation: in.DeliveryLocation,
		Notes:            in.Notes,
		CreatedAt:        s.clock.Now(),
	}

	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: persist: %w", err)
	}

	s.metrics.RecordBookingCreated()
	return b, nil
}

// validationFromValidator reports the first failing field as a domain error.
func validationFromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &domain.ValidationError{Reason: err.Error()}
	}

	fe := verrs[0]
	reason := "is " + fe.Tag()
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "max":
		reason = "must be at most " + fe.Param() + " characters"
	}
	return &domain.ValidationError{Field: toSnake(fe.Field()), Reason: reason}
}

func toSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1]) && i > 0 && unicode.IsUpper(runes[i-1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
