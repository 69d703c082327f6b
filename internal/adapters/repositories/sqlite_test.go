package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tms-load-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

var created = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

func sampleLoad(id, tenant string, status domain.LoadStatus) domain.Load {
	rate := decimal.RequireFromString("1250.75")
	planned := created.Add(24 * time.Hour)
	return domain.Load{
		ID:                id,
		TenantID:          tenant,
		OrderNumber:       "ORD-" + id,
		Status:            status,
		EquipmentID:       "eq-1",
		ConfirmedRate:     &rate,
		PickupTimePlanned: &planned,
		CreatedAt:         created,
		UpdatedAt:         created,
		Version:           1,
	}
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := InitSchema(db); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestInitSchemaNilDB(t *testing.T) {
	if err := InitSchema(nil); err == nil {
		t.Fatal("expected error for nil DB")
	}
}

func TestSqliteLoadRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteLoadRepository(openTestDB(t))

	want := sampleLoad("l1", "t1", domain.StatusPending)
	require.NoError(t, repo.InsertLoad(ctx, want))

	got, err := repo.GetLoad(ctx, "t1", "l1")
	require.NoError(t, err)

	assert.Equal(t, want.OrderNumber, got.OrderNumber)
	assert.Equal(t, domain.StatusPending, got.Status)
	require.NotNil(t, got.ConfirmedRate)
	assert.True(t, got.ConfirmedRate.Equal(*want.ConfirmedRate))
	assert.Nil(t, got.TotalCost)
	require.NotNil(t, got.PickupTimePlanned)
	assert.True(t, got.PickupTimePlanned.Equal(*want.PickupTimePlanned))
	assert.Nil(t, got.PickupTimeActual)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, int64(1), got.Version)
}

func TestSqliteLoadRepositoryTenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteLoadRepository(openTestDB(t))
	require.NoError(t, repo.InsertLoad(ctx, sampleLoad("l1", "t1", domain.StatusPending)))

	_, err := repo.GetLoad(ctx, "t2", "l1")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	loads, err := repo.ListLoads(ctx, "t2", domain.ScopeMine)
	require.NoError(t, err)
	assert.Empty(t, loads)
}

func TestSqliteLoadRepositoryListScopes(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteLoadRepository(openTestDB(t))
	for _, l := range []domain.Load{
		sampleLoad("b", "t1", domain.StatusInTransitDelivery),
		sampleLoad("a", "t1", domain.StatusPending),
		sampleLoad("c", "t1", domain.StatusInvoiced),
	} {
		require.NoError(t, repo.InsertLoad(ctx, l))
	}

	all, err := repo.ListLoads(ctx, "t1", domain.ScopeMine)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[2].ID)

	requests, err := repo.ListLoads(ctx, "t1", domain.ScopeRequests)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "a", requests[0].ID)

	invoiced, err := repo.ListLoadsByStatus(ctx, "t1", domain.StatusInvoiced)
	require.NoError(t, err)
	require.Len(t, invoiced, 1)
	assert.Equal(t, "c", invoiced[0].ID)
}

func TestSqliteLoadRepositoryCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteLoadRepository(openTestDB(t))
	cur := sampleLoad("l1", "t1", domain.StatusAtPickup)
	require.NoError(t, repo.InsertLoad(ctx, cur))

	next, err := cur.Advance(domain.StatusInTransitDelivery, created.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateLoadStatus(ctx, next, 1))

	stored, err := repo.GetLoad(ctx, "t1", "l1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInTransitDelivery, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
	require.NotNil(t, stored.PickupTimeActual)

	// A second writer still holding version 1 loses.
	err = repo.UpdateLoadStatus(ctx, next, 1)
	var vc *domain.VersionConflictError
	require.True(t, errors.As(err, &vc), "got %v", err)
	assert.Equal(t, int64(1), vc.Expected)
	assert.Equal(t, int64(2), vc.Actual)

	missing := next
	missing.ID = "nope"
	err = repo.UpdateLoadStatus(ctx, missing, 1)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
}

func TestSqliteLoadRepositoryClosedDB(t *testing.T) {
	db := openTestDB(t)
	repo := NewSqliteLoadRepository(db)
	db.Close()

	_, err := repo.ListLoads(context.Background(), "t1", domain.ScopeMine)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestSqliteBookingRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteBookingRepository(openTestDB(t))

	b := domain.Booking{
		ID:               "b1",
		TenantID:         "t1",
		EquipmentID:      "eq-1",
		StartDate:        time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC),
		DailyRate:        decimal.RequireFromString("125.50"),
		TotalCost:        decimal.RequireFromString("376.50"),
		Status:           domain.BookingStatusPending,
		PickupLocation:   "Phoenix, AZ",
		DeliveryLocation: "Tucson, AZ",
		CreatedAt:        created,
	}
	require.NoError(t, repo.CreateBooking(ctx, b))

	got, err := repo.GetBooking(ctx, "t1", "b1")
	require.NoError(t, err)
	assert.True(t, got.TotalCost.Equal(b.TotalCost))
	assert.True(t, got.DailyRate.Equal(b.DailyRate))
	assert.True(t, got.EndDate.Equal(b.EndDate))
	assert.Equal(t, domain.BookingStatusPending, got.Status)

	_, err = repo.GetBooking(ctx, "t2", "b1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = repo.CreateBooking(ctx, b)
	assert.True(t, errors.Is(err, domain.ErrRepository), "duplicate id must fail, got %v", err)
}

func TestSeedFromJSON(t *testing.T) {
	db := openTestDB(t)
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `{
		"equipment": [{"id": "eq-1", "tenant_id": "t1", "name": "53ft dry van", "daily_rate": "125.50"}],
		"loads": [
			{"id": "l1", "tenant_id": "t1", "order_number": "ORD-1", "status": "in_transit_delivery",
			 "confirmed_rate": "900", "created_at": "2024-06-01T08:00:00Z"},
			{"id": "l2", "tenant_id": "t1", "order_number": "ORD-2", "created_at": "2024-06-02T08:00:00Z"}
		]
	}`
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	if err := SeedFromJSON(db, path); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding twice replaces rows instead of failing.
	if err := SeedFromJSON(db, path); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	ctx := context.Background()
	loads, err := NewSqliteLoadRepository(db).ListLoads(ctx, "t1", domain.ScopeMine)
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, domain.StatusInTransitDelivery, loads[0].Status)
	assert.Equal(t, domain.StatusPending, loads[1].Status)

	eq, err := NewSqliteEquipmentCatalog(db).GetEquipment(ctx, "t1", "eq-1")
	require.NoError(t, err)
	assert.True(t, eq.DailyRate.Equal(decimal.RequireFromString("125.50")))
}

func TestSeedFromJSONRejectsUnknownStatus(t *testing.T) {
	db := openTestDB(t)
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `{"loads": [{"id": "l1", "tenant_id": "t1", "status": "lost", "created_at": "2024-06-01T08:00:00Z"}]}`
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	err := SeedFromJSON(db, path)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
