package repositories

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"tms-load-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresRepo(t *testing.T) *PostgresLoadRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skipping Postgres integration tests: %v", err)
	}
	t.Cleanup(pool.Close)

	repo := NewPostgresLoadRepository(pool)
	require.NoError(t, repo.ApplySchema(ctx))
	if _, err := pool.Exec(ctx, `TRUNCATE loads`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return repo
}

func TestPostgresLoadRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newPostgresRepo(t)

	want := sampleLoad("l1", "t1", domain.StatusPending)
	require.NoError(t, repo.InsertLoad(ctx, want))

	got, err := repo.GetLoad(ctx, "t1", "l1")
	require.NoError(t, err)
	require.NotNil(t, got.ConfirmedRate)
	assert.True(t, got.ConfirmedRate.Equal(*want.ConfirmedRate))
	assert.Nil(t, got.TotalCost)
	assert.True(t, got.CreatedAt.Equal(created))

	_, err = repo.GetLoad(ctx, "t2", "l1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	requests, err := repo.ListLoads(ctx, "t1", domain.ScopeRequests)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestPostgresLoadRepositoryConcurrentWritersOneWins(t *testing.T) {
	ctx := context.Background()
	repo := newPostgresRepo(t)
	cur := sampleLoad("l1", "t1", domain.StatusPending)
	require.NoError(t, repo.InsertLoad(ctx, cur))

	next, err := cur.Advance(domain.StatusPlanned, created.Add(time.Minute))
	require.NoError(t, err)

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.UpdateLoadStatus(ctx, next, 1)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrVersionConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)

	stored, err := repo.GetLoad(ctx, "t1", "l1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, domain.StatusPlanned, stored.Status)
}
