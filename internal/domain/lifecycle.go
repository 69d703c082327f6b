package domain

import "time"

// Advance returns a copy of l moved to status to at the given instant.
// The receiver is never modified; on error the caller keeps the original.
func (l Load) Advance(to LoadStatus, at time.Time) (Load, error) {
	if !to.Valid() {
		return l, &ValidationError{Field: "status", Reason: "unknown status " + string(to)}
	}
	if !l.Status.CanTransitionTo(to) {
		return l, &TransitionError{From: l.Status, To: to}
	}
	return l.moveTo(to, at), nil
}

// ForceStatus moves l to any other valid status regardless of the table.
// Only the administrative override path may call it.
func (l Load) ForceStatus(to LoadStatus, at time.Time) (Load, error) {
	if !to.Valid() {
		return l, &ValidationError{Field: "status", Reason: "unknown status " + string(to)}
	}
	if to == l.Status {
		return l, &TransitionError{From: l.Status, To: to}
	}
	return l.moveTo(to, at), nil
}

func (l Load) moveTo(to LoadStatus, at time.Time) Load {
	next := l.Clone()
	next.Status = to
	next.Version = l.Version + 1
	next.UpdatedAt = at

	// Actual times are written once and then left alone.
	if to.ReachedPickup() && next.PickupTimeActual == nil {
		t := at
		next.PickupTimeActual = &t
	}
	if to.ReachedDelivery() && next.DeliveryTimeActual == nil {
		t := at
		next.DeliveryTimeActual = &t
	}
	if to == StatusInvoiced && next.InvoicedAt == nil {
		t := at
		next.InvoicedAt = &t
	}
	return next
}
