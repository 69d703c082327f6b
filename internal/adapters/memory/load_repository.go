package memory

import (
	"context"
	"sort"
	"sync"

	"tms-load-service/internal/domain"
)

// LoadRepository keeps loads in process memory. It implements the same
// compare-and-swap contract as the SQL repositories and hands out copies,
// so callers never share state with the store.
type LoadRepository struct {
	mu    sync.RWMutex
	loads map[string]domain.Load
}

func NewLoadRepository(loads ...domain.Load) *LoadRepository {
	r := &LoadRepository{loads: make(map[string]domain.Load, len(loads))}
	for _, l := range loads {
		r.loads[l.ID] = l.Clone()
	}
	return r
}

// Put stores a load as is. It stands in for the external order-creation
// call and is not part of the repository port.
func (r *LoadRepository) Put(l domain.Load) {
	r.mu.Lock()
	r.loads[l.ID] = l.Clone()
	r.mu.Unlock()
}

func (r *LoadRepository) ListLoads(ctx context.Context, tenantID string, scope domain.Scope) ([]domain.Load, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewRepositoryError("list loads", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Load, 0, len(r.loads))
	for _, l := range r.loads {
		if l.TenantID != tenantID {
			continue
		}
		if scope == domain.ScopeRequests && l.Status != domain.StatusPending {
			continue
		}
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *LoadRepository) ListLoadsByStatus(ctx context.Context, tenantID string, status domain.LoadStatus) ([]domain.Load, error) {
	all, err := r.ListLoads(ctx, tenantID, domain.ScopeMine)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, l := range all {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *LoadRepository) GetLoad(ctx context.Context, tenantID string, loadID string) (domain.Load, error) {
	if err := ctx.Err(); err != nil {
		return domain.Load{}, domain.NewRepositoryError("get load", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.loads[loadID]
	if !ok || l.TenantID != tenantID {
		return domain.Load{}, domain.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *LoadRepository) UpdateLoadStatus(ctx context.Context, next domain.Load, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return domain.NewRepositoryError("update load status", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.loads[next.ID]
	if !ok || cur.TenantID != next.TenantID {
		return domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return &domain.VersionConflictError{LoadID: next.ID, Expected: expectedVersion, Actual: cur.Version}
	}

	r.loads[next.ID] = next.Clone()
	return nil
}
