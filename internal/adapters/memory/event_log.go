package memory

import (
	"context"
	"sync"

	"tms-load-service/internal/domain"
)

// EventLog records status changes in append order.
type EventLog struct {
	mu     sync.RWMutex
	events []domain.LoadStatusChanged
	// Err, when set, is returned from Publish instead of recording.
	Err error
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) Publish(ctx context.Context, evt domain.LoadStatusChanged) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	l.events = append(l.events, evt)
	return nil
}

func (l *EventLog) History(ctx context.Context, tenantID string, loadID string) ([]domain.LoadStatusChanged, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []domain.LoadStatusChanged{}
	for _, e := range l.events {
		if e.TenantID == tenantID && e.LoadID == loadID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every recorded event.
func (l *EventLog) All() []domain.LoadStatusChanged {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.LoadStatusChanged, len(l.events))
	copy(out, l.events)
	return out
}
