package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tms-load-service/internal/domain"
	"tms-load-service/internal/platform/logging"
	"tms-load-service/internal/platform/obs"
	"tms-load-service/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// EquipmentCatalog is a Redis read-through cache in front of another
// catalog. Redis failures degrade to a direct lookup; they are logged and
// never returned.
type EquipmentCatalog struct {
	next ports.EquipmentCatalog
	rdb  *redis.Client
	ttl  time.Duration
	log  *logrus.Logger
}

func NewEquipmentCatalog(next ports.EquipmentCatalog, rdb *redis.Client, ttl time.Duration) *EquipmentCatalog {
	return &EquipmentCatalog{next: next, rdb: rdb, ttl: ttl, log: logging.Logger()}
}

type cachedEquipment struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Name      string          `json:"name"`
	DailyRate decimal.Decimal `json:"daily_rate"`
}

func equipmentKey(tenantID, equipmentID string) string {
	return fmt.Sprintf("tms:equipment:%s:%s", tenantID, equipmentID)
}

func (c *EquipmentCatalog) GetEquipment(ctx context.Context, tenantID string, equipmentID string) (_ domain.Equipment, err error) {
	defer obs.Time(ctx, "equipment.cache.Get")(&err)

	key := equipmentKey(tenantID, equipmentID)
	if e, ok := c.get(ctx, key); ok {
		return e, nil
	}

	e, err := c.next.GetEquipment(ctx, tenantID, equipmentID)
	if err != nil {
		return domain.Equipment{}, err
	}

	c.put(ctx, key, e)
	return e, nil
}

// Invalidate drops a cached entry after the equipment's rate changed.
func (c *EquipmentCatalog) Invalidate(ctx context.Context, tenantID string, equipmentID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, equipmentKey(tenantID, equipmentID)).Err()
}

func (c *EquipmentCatalog) get(ctx context.Context, key string) (domain.Equipment, bool) {
	if c.rdb == nil {
		return domain.Equipment{}, false
	}

	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Equipment{}, false
	}
	if err != nil {
		logging.LogError(c.log, "cache", "EquipmentCatalog.get", "redis get failed", key, err)
		return domain.Equipment{}, false
	}

	var ce cachedEquipment
	if err := json.Unmarshal(val, &ce); err != nil {
		logging.LogError(c.log, "cache", "EquipmentCatalog.get", "corrupt cache entry", key, err)
		return domain.Equipment{}, false
	}
	return domain.Equipment{ID: ce.ID, TenantID: ce.TenantID, Name: ce.Name, DailyRate: ce.DailyRate}, true
}

func (c *EquipmentCatalog) put(ctx context.Context, key string, e domain.Equipment) {
	if c.rdb == nil {
		return
	}

	b, err := json.Marshal(cachedEquipment{ID: e.ID, TenantID: e.TenantID, Name: e.Name, DailyRate: e.DailyRate})
	if err != nil {
		logging.LogError(c.log, "cache", "EquipmentCatalog.put", "encode entry", key, err)
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		logging.LogError(c.log, "cache", "EquipmentCatalog.put", "redis set failed", key, err)
	}
}
