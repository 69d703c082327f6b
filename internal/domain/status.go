package domain

import (
	"fmt"
	"strings"
)

// LoadStatus is the lifecycle state of a Load. Wire values are lowercase
// snake_case and must not change.
type LoadStatus string

const (
	StatusPending           LoadStatus = "pending"
	StatusPlanned           LoadStatus = "planned"
	StatusInTransitPickup   LoadStatus = "in_transit_pickup"
	StatusAtPickup          LoadStatus = "at_pickup"
	StatusInTransitDelivery LoadStatus = "in_transit_delivery"
	StatusAtDelivery        LoadStatus = "at_delivery"
	StatusDelivered         LoadStatus = "delivered"
	StatusInvoiced          LoadStatus = "invoiced"
	StatusPaymentOverdue    LoadStatus = "payment_overdue"
	StatusPaid              LoadStatus = "paid"
)

// AllStatuses lists every status in lifecycle order. payment_overdue sits
// between invoiced and paid.
var AllStatuses = []LoadStatus{
	StatusPending,
	StatusPlanned,
	StatusInTransitPickup,
	StatusAtPickup,
	StatusInTransitDelivery,
	StatusAtDelivery,
	StatusDelivered,
	StatusInvoiced,
	StatusPaymentOverdue,
	StatusPaid,
}

// transitions is the adjacency table of the lifecycle. Anything not listed
// here is rejected, including forward skips.
var transitions = map[LoadStatus][]LoadStatus{
	StatusPending:           {StatusPlanned},
	StatusPlanned:           {StatusInTransitPickup},
	StatusInTransitPickup:   {StatusAtPickup},
	StatusAtPickup:          {StatusInTransitDelivery},
	StatusInTransitDelivery: {StatusAtDelivery},
	StatusAtDelivery:        {StatusDelivered},
	StatusDelivered:         {StatusInvoiced},
	StatusInvoiced:          {StatusPaymentOverdue, StatusPaid},
	StatusPaymentOverdue:    {StatusPaid},
	StatusPaid:              {},
}

var ordinals = func() map[LoadStatus]int {
	m := make(map[LoadStatus]int, len(AllStatuses))
	for i, s := range AllStatuses {
		m[s] = i
	}
	return m
}()

// ParseLoadStatus converts a wire value into a LoadStatus.
func ParseLoadStatus(raw string) (LoadStatus, error) {
	s := LoadStatus(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", raw)}
	}
	return s, nil
}

func (s LoadStatus) Valid() bool {
	_, ok := ordinals[s]
	return ok
}

func (s LoadStatus) String() string { return string(s) }

// Ordinal returns the position of s in lifecycle order, or -1 when s is not
// a known status.
func (s LoadStatus) Ordinal() int {
	if i, ok := ordinals[s]; ok {
		return i
	}
	return -1
}

// CanTransitionTo reports whether the edge s -> to is in the lifecycle table.
func (s LoadStatus) CanTransitionTo(to LoadStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func (s LoadStatus) NextStatuses() []LoadStatus {
	next := transitions[s]
	out := make([]LoadStatus, len(next))
	copy(out, next)
	return out
}

func (s LoadStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Active reports whether the load is still moving through dispatch.
func (s LoadStatus) Active() bool {
	switch s {
	case StatusPending, StatusPlanned, StatusInTransitPickup, StatusAtPickup,
		StatusInTransitDelivery, StatusAtDelivery:
		return true
	}
	return false
}

// Completed reports whether the load counts as delivered for KPI purposes.
// payment_overdue is tracked separately as overdue.
func (s LoadStatus) Completed() bool {
	switch s {
	case StatusDelivered, StatusInvoiced, StatusPaid:
		return true
	}
	return false
}

// ReachedPickup reports whether s is at_pickup or any later status.
func (s LoadStatus) ReachedPickup() bool {
	return s.Ordinal() >= StatusAtPickup.Ordinal()
}

// ReachedDelivery reports whether s is at_delivery or any later status.
func (s LoadStatus) ReachedDelivery() bool {
	return s.Ordinal() >= StatusAtDelivery.Ordinal()
}
