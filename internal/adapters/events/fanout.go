package events

import (
	"context"
	"errors"

	"tms-load-service/internal/domain"
	"tms-load-service/internal/ports"
)

// Fanout delivers each event to every sink. All sinks are attempted; the
// failures are joined.
type Fanout struct {
	sinks []ports.EventPublisher
}

func NewFanout(sinks ...ports.EventPublisher) *Fanout {
	out := make([]ports.EventPublisher, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Fanout{sinks: out}
}

func (f *Fanout) Publish(ctx context.Context, evt domain.LoadStatusChanged) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
