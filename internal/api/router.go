package api

import (
	"context"
	"net/http"

	"tms-load-service/internal/api/handlers"
	"tms-load-service/internal/platform/metrics"
	"tms-load-service/internal/ports"
	"tms-load-service/internal/services"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Loads     ports.LoadRepository
	History   ports.EventLog
	Lifecycle *services.LifecycleService
	Bookings  *services.BookingService
	Analytics *services.AnalyticsService
	Metrics   *metrics.Collector

	// Ready, when set, makes /health fail while the store is unreachable.
	Ready func(ctx context.Context) error
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	loadHandler := &handlers.LoadHandler{
		Repo:      d.Loads,
		Lifecycle: d.Lifecycle,
		History:   d.History,
	}
	bookingHandler := &handlers.BookingHandler{Bookings: d.Bookings}
	analyticsHandler := &handlers.AnalyticsHandler{Analytics: d.Analytics}
	healthHandler := &handlers.HealthHandler{Ready: d.Ready}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.Handle("GET /metrics", d.Metrics.Handler())

	mux.HandleFunc("GET /loads", loadHandler.List)
	mux.HandleFunc("GET /loads/{id}", loadHandler.Get)
	mux.HandleFunc("PATCH /loads/{id}/status", loadHandler.UpdateStatus)
	mux.HandleFunc("POST /loads/{id}/override", loadHandler.Override)
	mux.HandleFunc("GET /loads/{id}/history", loadHandler.StatusHistory)

	mux.HandleFunc("POST /bookings", bookingHandler.Create)

	mux.HandleFunc("GET /analytics/kpi", analyticsHandler.KPI)
	mux.HandleFunc("GET /analytics/kpi.xlsx", analyticsHandler.KPIExport)

	return requestContext(recoverer(loggingMiddleware(mux)))
}
