package services

import (
	"math"
	"time"

	"tms-load-service/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	// currencyMinorUnits is the number of decimal places costs are rounded to.
	currencyMinorUnits = 2
	day                = 24 * time.Hour
)

// BookingDays returns the number of billable days between two dates.
// Both dates are reduced to their calendar day at UTC midnight before
// subtracting, and a same-day booking bills one day.
func BookingDays(startDate, endDate time.Time) (int64, error) {
	start := utcMidnight(startDate)
	end := utcMidnight(endDate)
	if end.Before(start) {
		return 0, domain.ErrInvalidRange
	}

	days := int64(math.Ceil(float64(end.Sub(start)) / float64(day)))
	if days < 1 {
		days = 1
	}
	return days, nil
}

// ComputeBookingCost prices a booking as days * dailyRate, rounded half-up
// to the currency's minor unit.
func ComputeBookingCost(startDate, endDate time.Time, dailyRate decimal.Decimal) (decimal.Decimal, error) {
	if dailyRate.IsNegative() {
		return decimal.Zero, &domain.ValidationError{Field: "daily_rate", Reason: "must not be negative"}
	}

	days, err := BookingDays(startDate, endDate)
	if err != nil {
		return decimal.Zero, err
	}

	return dailyRate.Mul(decimal.NewFromInt(days)).Round(currencyMinorUnits), nil
}

func utcMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
