package handlers

import (
	"net/http"
	"strings"
	"time"

	"tms-load-service/internal/api/dto"
	"tms-load-service/internal/domain"
	"tms-load-service/internal/services"
)

type BookingHandler struct {
	Bookings *services.BookingService
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantFrom(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req dto.CreateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	b, err := h.Bookings.Create(r.Context(), services.CreateBookingInput{
		TenantID:         tenant,
		EquipmentID:      strings.TrimSpace(req.EquipmentID),
		StartDate:        start,
		EndDate:          end,
		PickupLocation:   req.PickupLocation,
		DeliveryLocation: req.DeliveryLocation,
		Notes:            req.Notes,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.FromBooking(b))
}

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &domain.ValidationError{Field: field, Reason: "is required"}
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, &domain.ValidationError{Field: field, Reason: "must be an ISO-8601 date"}
}
