package ports

import (
	"context"
	"tms-load-service/internal/domain"
)

// Receives status-change events after a transition has been persisted.
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.LoadStatusChanged) error
}

// Persisted status history of loads.
type EventLog interface {
	EventPublisher
	History(ctx context.Context, tenantID string, loadID string) ([]domain.LoadStatusChanged, error)
}
