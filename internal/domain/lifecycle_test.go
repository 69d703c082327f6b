package domain

import (
	"errors"
	"testing"
	"time"
)

var allowedEdges = map[[2]LoadStatus]bool{
	{StatusPending, StatusPlanned}:                     true,
	{StatusPlanned, StatusInTransitPickup}:             true,
	{StatusInTransitPickup, StatusAtPickup}:            true,
	{StatusAtPickup, StatusInTransitDelivery}:          true,
	{StatusInTransitDelivery, StatusAtDelivery}:        true,
	{StatusAtDelivery, StatusDelivered}:                true,
	{StatusDelivered, StatusInvoiced}:                  true,
	{StatusInvoiced, StatusPaymentOverdue}:             true,
	{StatusInvoiced, StatusPaid}:                       true,
	{StatusPaymentOverdue, StatusPaid}:                 true,
}

func TestAdvanceClosure(t *testing.T) {
	at := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			load := Load{ID: "load-1", Status: from, Version: 7}

			next, err := load.Advance(to, at)
			if allowedEdges[[2]LoadStatus{from, to}] {
				if err != nil {
					t.Fatalf("%s -> %s: unexpected error: %v", from, to, err)
				}
				if next.Status != to || next.Version != 8 {
					t.Fatalf("%s -> %s: got status=%s version=%d", from, to, next.Status, next.Version)
				}
				continue
			}

			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s -> %s: err = %v, want ErrInvalidTransition", from, to, err)
			}
			if next.Status != from || next.Version != 7 {
				t.Fatalf("%s -> %s: load mutated to status=%s version=%d", from, to, next.Status, next.Version)
			}
		}
	}
}

func TestAdvanceDoesNotMutateReceiver(t *testing.T) {
	load := Load{ID: "load-1", Status: StatusInTransitPickup, Version: 3}
	at := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	next, err := load.Advance(StatusAtPickup, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if load.Status != StatusInTransitPickup || load.Version != 3 || load.PickupTimeActual != nil {
		t.Fatalf("receiver changed: %+v", load)
	}
	if next.PickupTimeActual == nil || !next.PickupTimeActual.Equal(at) {
		t.Fatalf("pickup actual = %v, want %v", next.PickupTimeActual, at)
	}
}

func TestActualTimesStampedOnce(t *testing.T) {
	t0 := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	load := Load{ID: "load-1", Status: StatusInTransitPickup, Version: 1}

	steps := []LoadStatus{StatusAtPickup, StatusInTransitDelivery, StatusAtDelivery, StatusDelivered}
	var err error
	for i, s := range steps {
		load, err = load.Advance(s, t0.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("advance to %s: %v", s, err)
		}
	}

	if !load.PickupTimeActual.Equal(t0) {
		t.Fatalf("pickup actual = %v, want %v", *load.PickupTimeActual, t0)
	}
	if want := t0.Add(2 * time.Hour); !load.DeliveryTimeActual.Equal(want) {
		t.Fatalf("delivery actual = %v, want %v", *load.DeliveryTimeActual, want)
	}
	if load.Version != 5 {
		t.Fatalf("version = %d, want 5", load.Version)
	}
}

func TestInvoicedAtStamped(t *testing.T) {
	at := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	load := Load{Status: StatusDelivered}

	next, err := load.Advance(StatusInvoiced, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.InvoicedAt == nil || !next.InvoicedAt.Equal(at) {
		t.Fatalf("invoiced at = %v, want %v", next.InvoicedAt, at)
	}
}

func TestForceStatusSkipsTableButStamps(t *testing.T) {
	at := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	load := Load{Status: StatusPending, Version: 2}

	next, err := load.ForceStatus(StatusDelivered, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Status != StatusDelivered || next.Version != 3 {
		t.Fatalf("got status=%s version=%d", next.Status, next.Version)
	}
	if next.PickupTimeActual == nil || next.DeliveryTimeActual == nil {
		t.Fatalf("expected both actual times stamped, got %+v", next)
	}

	if _, err := next.ForceStatus(StatusDelivered, at); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("same-status override err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionErrorMessage(t *testing.T) {
	err := &TransitionError{From: StatusPending, To: StatusDelivered}
	if got, want := err.Error(), "cannot move from pending directly to delivered"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}

	back := &TransitionError{From: StatusPaid, To: StatusInvoiced}
	if got, want := back.Error(), "cannot move from paid back to invoiced"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestParseLoadStatus(t *testing.T) {
	for _, s := range AllStatuses {
		got, err := ParseLoadStatus(string(s))
		if err != nil || got != s {
			t.Fatalf("ParseLoadStatus(%q) = %q, %v", s, got, err)
		}
	}

	if _, err := ParseLoadStatus("shipped"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestStatusSets(t *testing.T) {
	if !StatusPaid.Terminal() {
		t.Fatalf("paid must be terminal")
	}
	for _, s := range AllStatuses {
		if s != StatusPaid && s.Terminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
	if StatusPaymentOverdue.CanTransitionTo(StatusInvoiced) {
		t.Fatalf("payment_overdue must not re-enter invoiced")
	}
	if StatusPaymentOverdue.Completed() || StatusPaymentOverdue.Active() {
		t.Fatalf("payment_overdue is neither active nor completed")
	}
}
