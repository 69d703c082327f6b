package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tms-load-service/internal/domain"
	"tms-load-service/internal/platform/clock"
	"tms-load-service/internal/platform/logging"
	"tms-load-service/internal/platform/metrics"
	"tms-load-service/internal/platform/obs"
	"tms-load-service/internal/ports"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TransitionRequest struct {
	TenantID        string
	LoadID          string
	ExpectedVersion int64
	Target          domain.LoadStatus
	Actor           domain.Actor
}

type OverrideRequest struct {
	TransitionRequest
	Reason string
}

// LifecycleService is the only writer of load status. Every write is guarded
// by the caller's expected version; no lock is held across requests.
type LifecycleService struct {
	repo    ports.LoadRepository
	events  ports.EventPublisher
	clock   clock.Clock
	metrics *metrics.Collector
	log     *logrus.Logger
}

func NewLifecycleService(
	repo ports.LoadRepository,
	events ports.EventPublisher,
	clk clock.Clock,
	m *metrics.Collector,
) *LifecycleService {
	return &LifecycleService{
		repo:    repo,
		events:  events,
		clock:   clk,
		metrics: m,
		log:     logging.Logger(),
	}
}

// Transition moves a load along one edge of the lifecycle table.
//
// Authorization is decided from the actor and the target alone, before the
// load is read, so a rejected actor learns nothing about the load's state.
func (s *LifecycleService) Transition(ctx context.Context, req TransitionRequest) (_ domain.Load, err error) {
	defer obs.Time(ctx, "lifecycle.Transition")(&err)
	defer func() { s.metrics.RecordTransition(string(req.Target), outcome(err)) }()

	if err := validateTransitionRequest(req); err != nil {
		return domain.Load{}, fmt.Errorf("transition load %s: %w", req.LoadID, err)
	}
	if !req.Actor.MayMoveTo(req.Target) {
		return domain.Load{}, fmt.Errorf("transition load %s: %w", req.LoadID, domain.ErrUnauthorized)
	}

	return s.apply(ctx, req, func(current domain.Load) (domain.Load, error) {
		return current.Advance(req.Target, s.clock.Now())
	}, "")
}

// Override moves a load to any other status, bypassing the lifecycle table.
// It is reserved for administrators and always records a reason.
func (s *LifecycleService) Override(ctx context.Context, req OverrideRequest) (_ domain.Load, err error) {
	defer obs.Time(ctx, "lifecycle.Override")(&err)
	defer func() { s.metrics.RecordTransition(string(req.Target), "override_"+outcome(err)) }()

	if err := validateTransitionRequest(req.TransitionRequest); err != nil {
		return domain.Load{}, fmt.Errorf("override load %s: %w", req.LoadID, err)
	}
	if !req.Actor.CanOverride() {
		return domain.Load{}, fmt.Errorf("override load %s: %w", req.LoadID, domain.ErrUnauthorized)
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.Load{}, fmt.Errorf("override load %s: %w", req.LoadID,
			&domain.ValidationError{Field: "reason", Reason: "is required"})
	}

	return s.apply(ctx, req.TransitionRequest, func(current domain.Load) (domain.Load, error) {
		return current.ForceStatus(req.Target, s.clock.Now())
	}, reason)
}

func (s *LifecycleService) apply(
	ctx context.Context,
	req TransitionRequest,
	move func(domain.Load) (domain.Load, error),
	overrideReason string,
) (domain.Load, error) {
	current, err := s.repo.GetLoad(ctx, req.TenantID, req.LoadID)
	if err != nil {
		return domain.Load{}, fmt.Errorf("transition load %s: get load: %w", req.LoadID, err)
	}

	if current.Version != req.ExpectedVersion {
		return domain.Load{}, &domain.VersionConflictError{
			LoadID:   req.LoadID,
			Expected: req.ExpectedVersion,
			Actual:   current.Version,
		}
	}

	next, err := move(current)
	if err != nil {
		return domain.Load{}, fmt.Errorf("transition load %s: %w", req.LoadID, err)
	}

	if err := s.repo.UpdateLoadStatus(ctx, next, req.ExpectedVersion); err != nil {
		return domain.Load{}, fmt.Errorf("transition load %s: persist: %w", req.LoadID, err)
	}

	evt := domain.LoadStatusChanged{
		ID:        uuid.NewString(),
		LoadID:    next.ID,
		TenantID:  next.TenantID,
		From:      current.Status,
		To:        next.Status,
		ActorID:   req.Actor.ID,
		ActorRole: req.Actor.Role,
		At:        next.UpdatedAt,
		Version:   next.Version,
		Override:  overrideReason != "",
		Reason:    overrideReason,
	}
	s.publish(ctx, evt)

	return next, nil
}

// publish hands the event to the sinks. The transition is already durable,
// so a sink failure is logged and counted rather than returned.
func (s *LifecycleService) publish(ctx context.Context, evt domain.LoadStatusChanged) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.metrics.RecordPublishFailure()
		logging.LogError(s.log, "services", "LifecycleService.publish", "publish status change", evt, err)
	}
}

func validateTransitionRequest(req TransitionRequest) error {
	if strings.TrimSpace(req.TenantID) == "" {
		return &domain.ValidationError{Field: "tenant_id", Reason: "is required"}
	}
	if strings.TrimSpace(req.LoadID) == "" {
		return &domain.ValidationError{Field: "load_id", Reason: "is required"}
	}
	if !req.Target.Valid() {
		return &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", req.Target)}
	}
	return nil
}

// outcome classifies err for metrics labels.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid_request"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrVersionConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrRepository):
		return "repository_error"
	}
	return "error"
}
