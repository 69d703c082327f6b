package handlers

import (
	"net/http"

	"tms-load-service/internal/api/dto"
	"tms-load-service/internal/domain"
	"tms-load-service/internal/ports"
	"tms-load-service/internal/services"
)

type LoadHandler struct {
	Repo      ports.LoadRepository
	Lifecycle *services.LifecycleService
	History   ports.EventLog
}

// List returns the tenant's loads for ?scope=mine|requests.
func (h *LoadHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantFrom(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	scope, err := domain.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	loads, err := h.Repo.ListLoads(r.Context(), tenant, scope)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ListLoadsResponse{Loads: dto.FromLoads(loads)})
}

func (h *LoadHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantFrom(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	l, err := h.Repo.GetLoad(r.Context(), tenant, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	setETag(w, l.Version)
	writeJSON(w, r, http.StatusOK, dto.FromLoad(l))
}

// UpdateStatus applies PATCH /loads/{id}/status?status=<target> guarded by
// If-Match.
func (h *LoadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := h.transitionRequest(w, r)
	if !ok {
		return
	}

	target, err := domain.ParseLoadStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	req.Target = target

	l, err := h.Lifecycle.Transition(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	setETag(w, l.Version)
	writeJSON(w, r, http.StatusOK, dto.FromLoad(l))
}

// Override applies an administrative status correction with a reason.
func (h *LoadHandler) Override(w http.ResponseWriter, r *http.Request) {
	req, ok := h.transitionRequest(w, r)
	if !ok {
		return
	}

	var body dto.OverrideRequest
	if !decodeBody(w, r, &body) {
		return
	}

	target, err := domain.ParseLoadStatus(body.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	req.Target = target

	l, err := h.Lifecycle.Override(r.Context(), services.OverrideRequest{TransitionRequest: req, Reason: body.Reason})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	setETag(w, l.Version)
	writeJSON(w, r, http.StatusOK, dto.FromLoad(l))
}

// StatusHistory lists the load's recorded status changes, oldest first.
func (h *LoadHandler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantFrom(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	loadID := r.PathValue("id")

	// Unknown or foreign loads are a 404, not an empty history.
	if _, err := h.Repo.GetLoad(r.Context(), tenant, loadID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	events, err := h.History.History(r.Context(), tenant, loadID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromHistory(loadID, events))
}

func (h *LoadHandler) transitionRequest(w http.ResponseWriter, r *http.Request) (services.TransitionRequest, bool) {
	tenant, err := tenantFrom(r)
	if err != nil {
		writeDomainError(w, r, err)
		return services.TransitionRequest{}, false
	}
	actor, err := actorFrom(r)
	if err != nil {
		writeDomainError(w, r, err)
		return services.TransitionRequest{}, false
	}
	version, err := parseIfMatch(r)
	if err != nil {
		writeDomainError(w, r, err)
		return services.TransitionRequest{}, false
	}

	return services.TransitionRequest{
		TenantID:        tenant,
		LoadID:          r.PathValue("id"),
		ExpectedVersion: version,
		Actor:           actor,
	}, true
}
