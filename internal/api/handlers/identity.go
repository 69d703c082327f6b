package handlers

import (
	"net/http"
	"strings"

	"tms-load-service/internal/domain"
)

// Identity headers set by the gateway after it has verified the caller.
const (
	HeaderTenantID  = "X-Tenant-ID"
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

func tenantFrom(r *http.Request) (string, error) {
	tenant := strings.TrimSpace(r.Header.Get(HeaderTenantID))
	if tenant == "" {
		return "", &domain.ValidationError{Field: HeaderTenantID, Reason: "header is required"}
	}
	return tenant, nil
}

// actorFrom requires an actor id; a missing or unknown role is a viewer.
func actorFrom(r *http.Request) (domain.Actor, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderActorID))
	if id == "" {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	return domain.Actor{ID: id, Role: domain.ParseRole(r.Header.Get(HeaderActorRole))}, nil
}
