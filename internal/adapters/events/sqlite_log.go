package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tms-load-service/internal/domain"
)

// SqliteLog appends status-change events to the load_events table created by
// repositories.InitSchema and serves them back as per-load history.
type SqliteLog struct {
	db *sql.DB
}

func NewSqliteLog(db *sql.DB) *SqliteLog {
	return &SqliteLog{db: db}
}

// Publish appends evt. Replaying an event with an id already stored is a no-op.
func (l *SqliteLog) Publish(ctx context.Context, evt domain.LoadStatusChanged) error {
	if l.db == nil {
		return domain.NewRepositoryError("append event", errors.New("sqlite event log: DB is nil"))
	}

	override := 0
	if evt.Override {
		override = 1
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO load_events (
			id, tenant_id, load_id, from_status, to_status,
			actor_id, actor_role, at, version, override, reason
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		evt.ID,
		evt.TenantID,
		evt.LoadID,
		string(evt.From),
		string(evt.To),
		evt.ActorID,
		string(evt.ActorRole),
		evt.At.UTC().Format(time.RFC3339Nano),
		evt.Version,
		override,
		evt.Reason,
	)
	if err != nil {
		return domain.NewRepositoryError("append event", fmt.Errorf("insert event %s: %w", evt.ID, err))
	}
	return nil
}

// History returns the load's events in append order. Unknown loads yield an
// empty slice.
func (l *SqliteLog) History(ctx context.Context, tenantID string, loadID string) ([]domain.LoadStatusChanged, error) {
	if l.db == nil {
		return nil, domain.NewRepositoryError("load history", errors.New("sqlite event log: DB is nil"))
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, tenant_id, load_id, from_status, to_status,
		       actor_id, actor_role, at, version, override, reason
		FROM load_events
		WHERE tenant_id = ? AND load_id = ?
		ORDER BY seq ASC
	`, tenantID, loadID)
	if err != nil {
		return nil, domain.NewRepositoryError("load history", err)
	}
	defer rows.Close()

	out := []domain.LoadStatusChanged{}
	for rows.Next() {
		var (
			evt            domain.LoadStatusChanged
			from, to, role string
			at             string
			override       int
		)
		if err := rows.Scan(
			&evt.ID, &evt.TenantID, &evt.LoadID, &from, &to,
			&evt.ActorID, &role, &at, &evt.Version, &override, &evt.Reason,
		); err != nil {
			return nil, domain.NewRepositoryError("load history", fmt.Errorf("scan event: %w", err))
		}
		evt.From = domain.LoadStatus(from)
		evt.To = domain.LoadStatus(to)
		evt.ActorRole = domain.Role(role)
		evt.Override = override == 1
		if evt.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, domain.NewRepositoryError("load history", fmt.Errorf("event %s: at: %w", evt.ID, err))
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("load history", err)
	}
	return out, nil
}
