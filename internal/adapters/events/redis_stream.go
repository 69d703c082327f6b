package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tms-load-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const defaultStreamMaxLen = 100_000

// RedisStreamPublisher appends status-change events to a Redis stream.
// Billing consumers read the stream with a consumer group and filter on the
// billing field.
type RedisStreamPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisStreamPublisher(rdb *redis.Client, stream string) (*RedisStreamPublisher, error) {
	if rdb == nil {
		return nil, errors.New("redis stream publisher: client is nil")
	}
	if stream == "" {
		return nil, errors.New("redis stream publisher: stream name is empty")
	}
	return &RedisStreamPublisher{rdb: rdb, stream: stream, maxLen: defaultStreamMaxLen}, nil
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, evt domain.LoadStatusChanged) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("redis stream publish: encode event %s: %w", evt.ID, err)
	}

	billing := "0"
	if evt.TriggersBilling() {
		billing = "1"
	}

	err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id":  evt.ID,
			"tenant_id": evt.TenantID,
			"load_id":   evt.LoadID,
			"to":        string(evt.To),
			"billing":   billing,
			"payload":   string(payload),
		},
	}).Err()
	if err != nil {
		return domain.NewRepositoryError("redis stream publish", err)
	}
	return nil
}
