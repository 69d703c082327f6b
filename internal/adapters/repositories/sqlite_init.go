package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"tms-load-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createLoadsQuery := `
	CREATE TABLE IF NOT EXISTS loads (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		order_number TEXT NOT NULL,
		status TEXT NOT NULL,
		equipment_id TEXT NOT NULL DEFAULT '',
		confirmed_rate TEXT,
		total_cost TEXT,
		pickup_time_planned TEXT,
		pickup_time_actual TEXT,
		delivery_time_planned TEXT,
		delivery_time_actual TEXT,
		invoiced_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1
	);
	`

	createEquipmentQuery := `
	CREATE TABLE IF NOT EXISTS equipment (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		daily_rate TEXT NOT NULL
	);
	`

	createBookingsQuery := `
	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		equipment_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		daily_rate TEXT NOT NULL,
		total_cost TEXT NOT NULL,
		status TEXT NOT NULL,
		pickup_location TEXT NOT NULL,
		delivery_location TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	`

	createEventsQuery := `
	CREATE TABLE IF NOT EXISTS load_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		tenant_id TEXT NOT NULL,
		load_id TEXT NOT NULL,
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		at TEXT NOT NULL,
		version INTEGER NOT NULL,
		override INTEGER NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT ''
	);
	`

	createIndexQueries := []string{
		`CREATE INDEX IF NOT EXISTS idx_loads_tenant_status ON loads(tenant_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_load_events_load ON load_events(tenant_id, load_id, seq);`,
	}

	statements := append([]string{
		createLoadsQuery,
		createEquipmentQuery,
		createBookingsQuery,
		createEventsQuery,
	}, createIndexQueries...)

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type EquipmentSeed struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	DailyRate string `json:"daily_rate"`
}

type LoadSeed struct {
	ID                  string     `json:"id"`
	TenantID            string     `json:"tenant_id"`
	OrderNumber         string     `json:"order_number"`
	Status              string     `json:"status"`
	EquipmentID         string     `json:"equipment_id"`
	ConfirmedRate       *string    `json:"confirmed_rate"`
	TotalCost           *string    `json:"total_cost"`
	PickupTimePlanned   *time.Time `json:"pickup_time_planned"`
	DeliveryTimePlanned *time.Time `json:"delivery_time_planned"`
	CreatedAt           time.Time  `json:"created_at"`
}

type Seed struct {
	Equipment []EquipmentSeed `json:"equipment"`
	Loads     []LoadSeed      `json:"loads"`
}

// Populate the database with equipment and loads from a JSON file.
// Seeded loads always start in their given status at version 1.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	equipment := make([]domain.Equipment, 0, len(data.Equipment))
	for i, item := range data.Equipment {
		if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.TenantID) == "" {
			return fmt.Errorf("seed: equipment at index %d: id and tenant_id are required", i+1)
		}
		rate, err := decimal.NewFromString(item.DailyRate)
		if err != nil {
			return fmt.Errorf("seed: equipment %q: daily_rate: %w", item.ID, err)
		}
		equipment = append(equipment, domain.Equipment{ID: item.ID, TenantID: item.TenantID, Name: item.Name, DailyRate: rate})
	}

	loads := make([]domain.Load, 0, len(data.Loads))
	for i, item := range data.Loads {
		if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.TenantID) == "" {
			return fmt.Errorf("seed: load at index %d: id and tenant_id are required", i+1)
		}
		status := domain.StatusPending
		if item.Status != "" {
			if status, err = domain.ParseLoadStatus(item.Status); err != nil {
				return fmt.Errorf("seed: load %q: %w", item.ID, err)
			}
		}
		l := domain.Load{
			ID:                  item.ID,
			TenantID:            item.TenantID,
			OrderNumber:         item.OrderNumber,
			Status:              status,
			EquipmentID:         item.EquipmentID,
			PickupTimePlanned:   item.PickupTimePlanned,
			DeliveryTimePlanned: item.DeliveryTimePlanned,
			CreatedAt:           item.CreatedAt.UTC(),
			UpdatedAt:           item.CreatedAt.UTC(),
			Version:             1,
		}
		if l.ConfirmedRate, err = parseOptionalDecimal(item.ConfirmedRate); err != nil {
			return fmt.Errorf("seed: load %q: confirmed_rate: %w", item.ID, err)
		}
		if l.TotalCost, err = parseOptionalDecimal(item.TotalCost); err != nil {
			return fmt.Errorf("seed: load %q: total_cost: %w", item.ID, err)
		}
		loads = append(loads, l)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer tx.Rollback()

	eqStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO equipment (id, tenant_id, name, daily_rate)
	VALUES (?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed: prepare equipment insert: %w", err)
	}
	defer eqStmt.Close()

	for _, e := range equipment {
		if _, err := eqStmt.Exec(e.ID, e.TenantID, e.Name, e.DailyRate.String()); err != nil {
			return fmt.Errorf("seed: insert equipment id=%s: %w", e.ID, err)
		}
	}

	for _, l := range loads {
		if err := insertLoad(context.Background(), tx, l); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}

func parseOptionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &d, nil
}
