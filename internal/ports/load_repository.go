package ports

import (
	"context"
	"tms-load-service/internal/domain"
)

// Port: the boundary to the store of loads.
//
// Implementations return domain.ErrNotFound for unknown ids and wrap
// transport or storage failures in *domain.RepositoryError.
type LoadRepository interface {
	// Return one consistent snapshot of a tenant's loads for the scope.
	ListLoads(ctx context.Context, tenantID string, scope domain.Scope) ([]domain.Load, error)

	GetLoad(ctx context.Context, tenantID string, loadID string) (domain.Load, error)

	// Persist next only if the stored version still equals expectedVersion.
	// A lost race yields *domain.VersionConflictError.
	UpdateLoadStatus(ctx context.Context, next domain.Load, expectedVersion int64) error
}

// Optional extension for repositories that can list loads in one status
// across the tenant without materializing the whole snapshot.
type LoadStatusLister interface {
	ListLoadsByStatus(ctx context.Context, tenantID string, status domain.LoadStatus) ([]domain.Load, error)
}
