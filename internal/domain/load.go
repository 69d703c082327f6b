package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Load is a single shipment tracked from creation to payment.
// Status and Version change only through the lifecycle service.
type Load struct {
	ID                  string
	TenantID            string
	OrderNumber         string
	Status              LoadStatus
	EquipmentID         string
	ConfirmedRate       *decimal.Decimal
	TotalCost           *decimal.Decimal
	PickupTimePlanned   *time.Time
	PickupTimeActual    *time.Time
	DeliveryTimePlanned *time.Time
	DeliveryTimeActual  *time.Time
	InvoicedAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
}

// Revenue returns the confirmed rate, falling back to the total cost, then zero.
func (l Load) Revenue() decimal.Decimal {
	if l.ConfirmedRate != nil {
		return *l.ConfirmedRate
	}
	if l.TotalCost != nil {
		return *l.TotalCost
	}
	return decimal.Zero
}

// Clone returns a deep copy so callers can mutate without aliasing a snapshot.
func (l Load) Clone() Load {
	c := l
	c.ConfirmedRate = cloneDecimal(l.ConfirmedRate)
	c.TotalCost = cloneDecimal(l.TotalCost)
	c.PickupTimePlanned = cloneTime(l.PickupTimePlanned)
	c.PickupTimeActual = cloneTime(l.PickupTimeActual)
	c.DeliveryTimePlanned = cloneTime(l.DeliveryTimePlanned)
	c.DeliveryTimeActual = cloneTime(l.DeliveryTimeActual)
	c.InvoicedAt = cloneTime(l.InvoicedAt)
	return c
}

// Scope selects which loads of a tenant a listing returns.
type Scope string

const (
	// ScopeMine is every load owned by the tenant.
	ScopeMine Scope = "mine"
	// ScopeRequests is loads still awaiting planning.
	ScopeRequests Scope = "requests"
)

func ParseScope(raw string) (Scope, error) {
	switch Scope(raw) {
	case "", ScopeMine:
		return ScopeMine, nil
	case ScopeRequests:
		return ScopeRequests, nil
	}
	return "", &ValidationError{Field: "scope", Reason: "must be mine or requests"}
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
