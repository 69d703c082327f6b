package events

import (
	"context"
	"errors"
	"testing"

	"tms-load-service/internal/adapters/memory"
	"tms-load-service/internal/domain"
)

func TestFanoutDeliversToEverySink(t *testing.T) {
	failing := memory.NewEventLog()
	failing.Err = errors.New("sink down")
	a, b := memory.NewEventLog(), memory.NewEventLog()

	f := NewFanout(a, failing, nil, b)
	err := f.Publish(context.Background(), event("e1", "l1", domain.StatusPending, domain.StatusPlanned, 2))

	if err == nil || err.Error() != "sink down" {
		t.Fatalf("expected joined sink error, got %v", err)
	}
	if len(a.All()) != 1 || len(b.All()) != 1 {
		t.Fatalf("healthy sinks must still receive the event: a=%d b=%d", len(a.All()), len(b.All()))
	}
}

func TestFanoutEmpty(t *testing.T) {
	if err := NewFanout().Publish(context.Background(), domain.LoadStatusChanged{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
