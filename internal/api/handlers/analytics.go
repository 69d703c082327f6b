package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"tms-load-service/internal/adapters/export"
	"tms-load-service/internal/api/dto"
	"tms-load-service/internal/domain"
	"tms-load-service/internal/services"
)

type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
}

func (h *AnalyticsHandler) KPI(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromKPISnapshot(snap))
}

// KPIExport serves the snapshot as an xlsx download.
func (h *AnalyticsHandler) KPIExport(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	// Render fully before writing headers so a failure can still become a 500.
	var buf bytes.Buffer
	if err := export.WriteKPIWorkbook(&buf, snap); err != nil {
		writeDomainError(w, r, err)
		return
	}

	filename := fmt.Sprintf("kpi-%s.xlsx", snap.GeneratedAt.Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *AnalyticsHandler) snapshot(w http.ResponseWriter, r *http.Request) (domain.KPISnapshot, bool) {
	tenant, err := tenantFrom(r)
	if err != nil {
		writeDomainError(w, r, err)
		return domain.KPISnapshot{}, false
	}
	scope, err := domain.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeDomainError(w, r, err)
		return domain.KPISnapshot{}, false
	}

	snap, err := h.Analytics.Snapshot(r.Context(), tenant, scope)
	if err != nil {
		writeDomainError(w, r, err)
		return domain.KPISnapshot{}, false
	}
	return snap, true
}
