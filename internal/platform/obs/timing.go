package obs

import (
	"context"
	"time"

	"tms-load-service/internal/platform/logging"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "req_id"
	TenantIDKey  ctxKey = "tenant_id"
)

// WithRequestID stores the request id used to correlate operation timings.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithTenantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TenantIDKey, id)
}

// Time logs the duration of an operation. Use as
//
//	defer obs.Time(ctx, "loads.repo.Get")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	fields := logrus.Fields{"op": name, "req_id": RequestID(ctx)}
	if tenant, ok := ctx.Value(TenantIDKey).(string); ok && tenant != "" {
		fields["tenant_id"] = tenant
	}

	return func(errp *error) {
		fields["dur_ms"] = time.Since(start).Milliseconds()
		entry := logging.Logger().WithFields(fields)

		if errp != nil && *errp != nil {
			entry.WithError(*errp).Warn("operation failed")
			return
		}
		entry.Debug("operation done")
	}
}
