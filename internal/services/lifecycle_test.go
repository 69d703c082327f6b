package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tms-load-service/internal/adapters/memory"
	"tms-load-service/internal/domain"
	"tms-load-service/internal/platform/clock"
)

var dispatcher = domain.Actor{ID: "u-dispatch", Role: domain.RoleDispatcher}

func newLifecycle(t *testing.T, loads ...domain.Load) (*LifecycleService, *memory.LoadRepository, *memory.EventLog, *clock.Manual) {
	t.Helper()
	repo := memory.NewLoadRepository(loads...)
	events := memory.NewEventLog()
	clk := clock.NewManual(time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC))
	return NewLifecycleService(repo, events, clk, nil), repo, events, clk
}

func pendingLoad() domain.Load {
	return domain.Load{
		ID:        "load-1",
		TenantID:  "t1",
		Status:    domain.StatusPending,
		Version:   4,
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransitionPendingToPlanned(t *testing.T) {
	svc, repo, events, _ := newLifecycle(t, pendingLoad())
	ctx := context.Background()

	got, err := svc.Transition(ctx, TransitionRequest{
		TenantID: "t1", LoadID: "load-1", ExpectedVersion: 4, Target: domain.StatusPlanned, Actor: dispatcher,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.StatusPlanned || got.Version != 5 {
		t.Fatalf("got status=%s version=%d, want planned/5", got.Status, got.Version)
	}

	stored, _ := repo.GetLoad(ctx, "t1", "load-1")
	if stored.Status != domain.StatusPlanned || stored.Version != 5 {
		t.Fatalf("stored status=%s version=%d", stored.Status, stored.Version)
	}

	all := events.All()
	if len(all) != 1 {
		t.Fatalf("events = %d, want 1", len(all))
	}
	evt := all[0]
	if evt.From != domain.StatusPending || evt.To != domain.StatusPlanned || evt.ActorID != dispatcher.ID || evt.Version != 5 {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.ID == "" || evt.Override {
		t.Fatalf("event must carry an id and not be an override: %+v", evt)
	}
}

func TestTransitionSkipRejected(t *testing.T) {
	svc, repo, events, _ := newLifecycle(t, pendingLoad())
	ctx := context.Background()

	_, err := svc.Transition(ctx, TransitionRequest{
		TenantID: "t1", LoadID: "load-1", ExpectedVersion: 4, Target: domain.StatusInTransitPickup, Actor: dispatcher,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	stored, _ := repo.GetLoad(ctx, "t1", "load-1")
	if stored.Status != domain.StatusPending || stored.Version != 4 {
		t.Fatalf("load changed: status=%s version=%d", stored.Status, stored.Version)
	}
	if len(events.All()) != 0 {
		t.Fatalf("no event expected on rejection")
	}
}

func TestTransitionClosureThroughService(t *testing.T) {
	admin := domain.Actor{ID: "root", Role: domain.RoleAdmin}
	ctx := context.Background()

	for _, from := range domain.AllStatuses {
		for _, to := range domain.AllStatuses {
			if from.CanTransitionTo(to) {
				continue
			}
			load := pendingLoad()
			load.Status = from
			svc, repo, _, _ := newLifecycle(t, load)

			_, err := svc.Transition(ctx, TransitionRequest{
				TenantID: "t1", LoadID: load.ID, ExpectedVersion: load.Version, Target: to, Actor: admin,
			})
			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Fatalf("%s -> %s: err = %v, want ErrInvalidTransition", from, to, err)
			}
			stored, _ := repo.GetLoad(ctx, "t1", load.ID)
			if stored.Status != from || stored.Version != load.Version {
				t.Fatalf("%s -> %s: load changed to %s/%d", from, to, stored.Status, stored.Version)
			}
		}
	}
}

func TestTransitionVersionGuard(t *testing.T) {
	svc, repo, _, _ := newLifecycle(t, pendingLoad())
	ctx := context.Background()

	for _, v := range []int64{3, 5, 0} {
		_, err := svc.Transition(ctx, TransitionRequest{
			TenantID: "t1", LoadID: "load-1", ExpectedVersion: v, Target: domain.StatusPlanned, Actor: dispatcher,
		})
		var conflict *domain.VersionConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected version %d: err = %v, want VersionConflictError", v, err)
		}
		if conflict.Actual != 4 || conflict.Expected != v {
			t.Fatalf("conflict = %+v", conflict)
		}
	}

	stored, _ := repo.GetLoad(ctx, "t1", "load-1")
	if stored.Status != domain.StatusPending || stored.Version != 4 {
		t.Fatalf("load changed: status=%s version=%d", stored.Status, stored.Version)
	}
}

func TestTransitionNotFound(t *testing.T) {
	svc, _, _, _ := newLifecycle(t, pendingLoad())

	_, err := svc.Transition(context.Background(), TransitionRequest{
		TenantID: "other-tenant", LoadID: "load-1", ExpectedVersion: 4, Target: domain.StatusPlanned, Actor: dispatcher,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTransitionUnauthorizedHidesState(t *testing.T) {
	driver := domain.Actor{ID: "d1", Role: domain.RoleDriver}
	svc, _, _, _ := newLifecycle(t, pendingLoad())
	ctx := context.Background()

	// A driver may never set paid; the answer must not depend on whether the
	// load exists or which version it is at.
	for _, req := range []TransitionRequest{
		{TenantID: "t1", LoadID: "load-1", ExpectedVersion: 4, Target: domain.StatusPaid, Actor: driver},
		{TenantID: "t1", LoadID: "missing", ExpectedVersion: 99, Target: domain.StatusPaid, Actor: driver},
	} {
		_, err := svc.Transition(ctx, req)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("load %s: err = %v, want ErrUnauthorized", req.LoadID, err)
		}
	}

	viewer := domain.Actor{ID: "v", Role: domain.RoleViewer}
	_, err := svc.Transition(ctx, TransitionRequest{
		TenantID: "t1", LoadID: "load-1", ExpectedVersion: 4, Target: domain.StatusPlanned, Actor: viewer,
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("viewer: err = %v, want ErrUnauthorized", err)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newLifecycle(t, pendingLoad())

	_, err := svc.Transition(context.Background(), TransitionRequest{
		TenantID: "t1", LoadID: "load-1", ExpectedVersion: 4, Target: "shipped", Actor: dispatcher,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestTransitionStampsPickupOnce(t *testing.T) {
	load := pendingLoad()
	load.Status = domain.StatusInTransitPickup
	svc, _, _, clk := newLifecycle(t, load)
	ctx := context.Background()

	pickupAt := clk.Now()
	version := load.Version
	for _, target := range []domain.LoadStatus{domain.StatusAtPickup, domain.StatusInTransitDelivery, domain.StatusAtDelivery} {
		got, err := svc.Transition(ctx, TransitionRequest{
			TenantID: "t1", LoadID: load.ID, ExpectedVersion: version, Target: target, Actor: dispatcher,
		})
		if err != nil {
			t.Fatalf("to %s: %v", target, err)
		}
		if got.PickupTimeActual == nil || !got.PickupTimeActual.Equal(pickupAt) {
			t.Fatalf("to %s: pickup actual = %v, want %v", target, got.PickupTimeActual, pickupAt)
		}
		version = got.Version
		clk.Advance(time.Hour)
	}

	if version != load.Version+3 {
		t.Fatalf("version = %d, want %d", version, load.Version+3)
	}
}

func TestTransitionSucceedsWhenPublishFails(t *testing.T) {
	svc, repo, events, _ := newLifecycle(t, pendingLoad())
	events.Err = errors.New("sink down")

	got, err := svc.Transition(context.Background(), TransitionRequest{
		TenantID: "t1", LoadID: "load-1", ExpectedVersion: 4, Target: domain.StatusPlanned, Actor: dispatcher,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := repo.GetLoad(context.Background(), "t1", "load-1")
	if stored.Version != got.Version {
		t.Fatalf("stored version %d, returned %d", stored.Version, got.Version)
	}
}

func TestBillingPath(t *testing.T) {
	billing := domain.Actor{ID: "acct", Role: domain.RoleBilling}
	load := pendingLoad()
	load.Status = domain.StatusDelivered
	svc, _, events, _ := newLifecycle(t, load)
	ctx := context.Background()

	got, err := svc.Transition(ctx, TransitionRequest{
		TenantID: "t1", LoadID: load.ID, ExpectedVersion: load.Version, Target: domain.StatusInvoiced, Actor: billing,
	})
	if err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if got.InvoicedAt == nil {
		t.Fatalf("invoiced_at must be stamped")
	}
	if !events.All()[0].TriggersBilling() {
		t.Fatalf("entering invoiced must trigger billing")
	}

	got, err = svc.Transition(ctx, TransitionRequest{
		TenantID: "t1", LoadID: load.ID, ExpectedVersion: got.Version, Target: domain.StatusPaymentOverdue, Actor: billing,
	})
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}

	_, err = svc.Transition(ctx, TransitionRequest{
		TenantID: "t1", LoadID: load.ID, ExpectedVersion: got.Version, Target: domain.StatusInvoiced, Actor: billing,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("overdue -> invoiced: err = %v, want ErrInvalidTransition", err)
	}

	got, err = svc.Transition(ctx, TransitionRequest{
		TenantID: "t1", LoadID: load.ID, ExpectedVersion: got.Version, Target: domain.StatusPaid, Actor: billing,
	})
	if err != nil || got.Status != domain.StatusPaid {
		t.Fatalf("paid: status=%s err=%v", got.Status, err)
	}
}

func TestOverride(t *testing.T) {
	admin := domain.Actor{ID: "root", Role: domain.RoleAdmin}
	svc, _, events, _ := newLifecycle(t, pendingLoad())
	ctx := context.Background()

	_, err := svc.Override(ctx, OverrideRequest{
		TransitionRequest: TransitionRequest{TenantID: "t1", LoadID: "load-1", ExpectedVersion: 4, Target: domain.StatusDelivered, Actor: dispatcher},
		Reason:            "paper delivery note",
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("dispatcher override: err = %v, want ErrUnauthorized", err)
	}

	_, err = svc.Override(ctx, OverrideRequest{
		TransitionRequest: TransitionRequest{TenantID: "t1", LoadID: "load-1", ExpectedVersion: 4, Target: domain.StatusDelivered, Actor: admin},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("override without reason: err = %v, want ErrValidation", err)
	}

	got, err := svc.Override(ctx, OverrideRequest{
		TransitionRequest: TransitionRequest{TenantID: "t1", LoadID: "load-1", ExpectedVersion: 4, Target: domain.StatusDelivered, Actor: admin},
		Reason:            "paper delivery note",
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if got.Status != domain.StatusDelivered || got.Version != 5 || got.DeliveryTimeActual == nil {
		t.Fatalf("unexpected load after override: %+v", got)
	}

	evt := events.All()[0]
	if !evt.Override || evt.Reason != "paper delivery note" {
		t.Fatalf("override event = %+v", evt)
	}
}
