package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tms-load-service/internal/adapters/backend"
	"tms-load-service/internal/adapters/cache"
	"tms-load-service/internal/adapters/events"
	"tms-load-service/internal/adapters/repositories"
	"tms-load-service/internal/api"
	"tms-load-service/internal/config"
	"tms-load-service/internal/platform/clock"
	"tms-load-service/internal/platform/db"
	"tms-load-service/internal/platform/logging"
	"tms-load-service/internal/platform/metrics"
	"tms-load-service/internal/ports"
	"tms-load-service/internal/scheduler"
	"tms-load-service/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// main is the application composition root.
// It wires concrete adapters (SQLite/Postgres/remote, Redis, NATS) behind
// ports and starts the HTTP server and the overdue sweep.
func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logging.Configure(cfg.LogLevel)

	if err := run(cfg); err != nil {
		logging.LogError(logging.Logger(), "main", "run", "server stopped", nil, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger := logging.Logger()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The local SQLite database always holds bookings, equipment and the
	// status history; only the load store is pluggable.
	sqliteDB, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer sqliteDB.Close()

	if err := initAndSeed(sqliteDB, cfg); err != nil {
		return err
	}

	loads, closeLoads, err := openLoadRepository(sigCtx, cfg, sqliteDB)
	if err != nil {
		return err
	}
	defer closeLoads()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(sigCtx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable at startup; cache and stream will retry per call")
		}
	}

	history := events.NewSqliteLog(sqliteDB)
	publisher, closePublisher, err := buildPublisher(cfg, history, rdb)
	if err != nil {
		return err
	}
	defer closePublisher()

	var equipment ports.EquipmentCatalog = repositories.NewSqliteEquipmentCatalog(sqliteDB)
	if rdb != nil {
		equipment = cache.NewEquipmentCatalog(equipment, rdb, cfg.EquipmentCacheTTL)
	}

	clk := clock.NewSystem()
	m := metrics.NewCollector()

	lifecycle := services.NewLifecycleService(loads, publisher, clk, m)
	bookings := services.NewBookingService(repositories.NewSqliteBookingRepository(sqliteDB), equipment, clk, m)
	analytics := services.NewAnalyticsService(loads, clk, cfg.Location(), m)

	sched, err := startSweep(cfg, services.NewOverdueSweeper(loads, lifecycle, clk, cfg.PaymentTerms(), m), rdb)
	if err != nil {
		return err
	}
	if sched != nil {
		defer func() {
			if err := sched.Stop(); err != nil {
				logging.LogError(logger, "main", "run", "stop scheduler", nil, err)
			}
		}()
	}

	router := api.NewRouter(api.Deps{
		Loads:     loads,
		History:   history,
		Lifecycle: lifecycle,
		Bookings:  bookings,
		Analytics: analytics,
		Metrics:   m,
		Ready:     sqliteDB.PingContext,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	logger.WithFields(logrus.Fields{
		"addr":   srv.Addr,
		"driver": cfg.RepositoryDriver,
	}).Info("Server listening")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func initAndSeed(sqliteDB *sql.DB, cfg config.Config) error {
	if err := repositories.InitSchema(sqliteDB); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if cfg.SeedPath == "" {
		return nil
	}
	if _, err := os.Stat(cfg.SeedPath); errors.Is(err, os.ErrNotExist) {
		logging.Logger().WithField("seed_path", cfg.SeedPath).Warn("seed file not found, skipping")
		return nil
	}
	if err := repositories.SeedFromJSON(sqliteDB, cfg.SeedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	return nil
}

func openLoadRepository(ctx context.Context, cfg config.Config, sqliteDB *sql.DB) (ports.LoadRepository, func(), error) {
	switch cfg.RepositoryDriver {
	case config.DriverPostgres:
		pool, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := repositories.NewPostgresLoadRepository(pool)
		if err := repo.ApplySchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	case config.DriverRemote:
		repo, err := backend.NewRemoteLoadRepository(cfg.BackendURL, backend.WithToken(cfg.BackendToken))
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil

	default:
		return repositories.NewSqliteLoadRepository(sqliteDB), func() {}, nil
	}
}

// buildPublisher fans status changes out to the local history first, then to
// the optional Redis stream and NATS subject.
func buildPublisher(cfg config.Config, history ports.EventPublisher, rdb *redis.Client) (ports.EventPublisher, func(), error) {
	sinks := []ports.EventPublisher{history}
	closeFn := func() {}

	if rdb != nil && cfg.EventsStream != "" {
		stream, err := events.NewRedisStreamPublisher(rdb, cfg.EventsStream)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, stream)
	}

	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return nil, nil, err
		}
		pub, err := events.NewNATSPublisher(nc, cfg.EventsSubject)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		sinks = append(sinks, pub)
		closeFn = func() { _ = nc.Drain() }
	}

	return events.NewFanout(sinks...), closeFn, nil
}

func startSweep(cfg config.Config, sweeper *services.OverdueSweeper, rdb *redis.Client) (*scheduler.Scheduler, error) {
	if cfg.OverdueSweepInterval == 0 || len(cfg.SweepTenants) == 0 {
		logging.Logger().Info("overdue sweep disabled")
		return nil, nil
	}

	var opts []scheduler.Option
	if rdb != nil {
		opts = append(opts, scheduler.WithLocker(scheduler.NewRedisLocker(rdb), cfg.OverdueSweepInterval))
	}

	sched, err := scheduler.New(sweeper, cfg.SweepTenants, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := sched.ScheduleOverdueSweep(cfg.OverdueSweepInterval); err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}
