package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tms-load-service/internal/platform/logging"
	"tms-load-service/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// ErrLockHeld is returned by a Locker when another instance holds the key.
var ErrLockHeld = errors.New("lock held by another instance")

type Sweeper interface {
	Sweep(ctx context.Context, tenantID string) (services.SweepResult, error)
}

// Locker serializes a sweep across service instances.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Scheduler wraps gocron to run the overdue sweep for a fixed tenant list.
type Scheduler struct {
	scheduler gocron.Scheduler
	sweeper   Sweeper
	tenants   []string
	locker    Locker
	lockTTL   time.Duration
	log       *logrus.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Scheduler)

// WithLocker makes each tenant's sweep hold a lock for at most ttl.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.locker = l
		s.lockTTL = ttl
	}
}

func New(sweeper Sweeper, tenants []string, opts ...Option) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		scheduler: gs,
		sweeper:   sweeper,
		tenants:   tenants,
		lockTTL:   5 * time.Minute,
		log:       logging.Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ScheduleOverdueSweep runs the sweep every interval, starting immediately.
// A run still in progress when the next one is due causes that one to be
// skipped. Returns the job ID.
func (s *Scheduler) ScheduleOverdueSweep(interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("schedule overdue sweep: interval must be positive, got %s", interval)
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runSweep),
		gocron.WithName("overdue-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create overdue sweep job: %w", err)
	}

	return job.ID().String(), nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.log.WithField("tenants", len(s.tenants)).Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop cancels a running sweep and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	s.log.Info("Stopping scheduler")
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runSweep() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	s.RunOnce(ctx)
}

// RunOnce sweeps every tenant in turn. Failures are logged per tenant and do
// not stop the remaining tenants.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, tenant := range s.tenants {
		if ctx.Err() != nil {
			return
		}
		s.sweepTenant(ctx, tenant)
	}
}

func (s *Scheduler) sweepTenant(ctx context.Context, tenant string) {
	fields := logrus.Fields{"job": "overdue-sweep", "tenant_id": tenant}

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, "overdue-sweep:"+tenant, s.lockTTL)
		if errors.Is(err, ErrLockHeld) {
			s.log.WithFields(fields).Debug("overdue sweep running elsewhere")
			return
		}
		if err != nil {
			logging.LogError(s.log, "scheduler", "sweepTenant", "obtain lock", tenant, err)
			return
		}
		defer release()
	}

	res, err := s.sweeper.Sweep(ctx, tenant)
	if err != nil {
		logging.LogError(s.log, "scheduler", "sweepTenant", "overdue sweep failed", tenant, err)
		return
	}

	s.log.WithFields(fields).WithFields(logrus.Fields{
		"examined": res.Examined,
		"marked":   res.Marked,
		"skipped":  res.Skipped,
	}).Info("overdue sweep finished")
}
