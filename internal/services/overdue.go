package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tms-load-service/internal/domain"
	"tms-load-service/internal/platform/clock"
	"tms-load-service/internal/platform/logging"
	"tms-load-service/internal/platform/metrics"
	"tms-load-service/internal/platform/obs"
	"tms-load-service/internal/ports"

	"github.com/sirupsen/logrus"
)

type SweepResult struct {
	Examined int
	Marked   int
	Skipped  int
}

// OverdueSweeper moves invoiced loads past their payment terms into
// payment_overdue, going through the lifecycle service like any other actor.
type OverdueSweeper struct {
	repo      ports.LoadRepository
	lifecycle *LifecycleService
	clock     clock.Clock
	terms     time.Duration
	metrics   *metrics.Collector
	log       *logrus.Logger
}

func NewOverdueSweeper(
	repo ports.LoadRepository,
	lifecycle *LifecycleService,
	clk clock.Clock,
	paymentTerms time.Duration,
	m *metrics.Collector,
) *OverdueSweeper {
	return &OverdueSweeper{
		repo:      repo,
		lifecycle: lifecycle,
		clock:     clk,
		terms:     paymentTerms,
		metrics:   m,
		log:       logging.Logger(),
	}
}

// Sweep examines one tenant. Loads changed concurrently by someone else are
// skipped and picked up on the next run; a repository failure aborts.
func (s *OverdueSweeper) Sweep(ctx context.Context, tenantID string) (_ SweepResult, err error) {
	defer obs.Time(ctx, "overdue.Sweep")(&err)

	invoiced, err := s.invoicedLoads(ctx, tenantID)
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep overdue: tenant %s: %w", tenantID, err)
	}

	now := s.clock.Now()
	var res SweepResult
	for _, l := range invoiced {
		res.Examined++
		if l.InvoicedAt == nil || !now.After(l.InvoicedAt.Add(s.terms)) {
			continue
		}

		_, err := s.lifecycle.Transition(ctx, TransitionRequest{
			TenantID:        tenantID,
			LoadID:          l.ID,
			ExpectedVersion: l.Version,
			Target:          domain.StatusPaymentOverdue,
			Actor:           domain.SystemActor,
		})
		switch {
		case err == nil:
			res.Marked++
		case errors.Is(err, domain.ErrRepository):
			s.metrics.RecordOverdue(res.Marked)
			return res, fmt.Errorf("sweep overdue: tenant %s: %w", tenantID, err)
		default:
			res.Skipped++
			s.log.WithFields(logrus.Fields{
				"tenant_id": tenantID,
				"load_id":   l.ID,
			}).WithError(err).Info("overdue sweep skipped load")
		}
	}

	s.metrics.RecordOverdue(res.Marked)
	return res, nil
}

func (s *OverdueSweeper) invoicedLoads(ctx context.Context, tenantID string) ([]domain.Load, error) {
	if lister, ok := s.repo.(ports.LoadStatusLister); ok {
		return lister.ListLoadsByStatus(ctx, tenantID, domain.StatusInvoiced)
	}

	all, err := s.repo.ListLoads(ctx, tenantID, domain.ScopeMine)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Load, 0, len(all))
	for _, l := range all {
		if l.Status == domain.StatusInvoiced {
			out = append(out, l)
		}
	}
	return out, nil
}
