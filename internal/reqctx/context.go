package reqctx

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const keyRID ctxKey = "req_rid"

// WithRID stores the correlation id of the inbound request.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// Fields returns the zap fields carried by ctx.
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if rid := RID(ctx); rid != "" {
		fields = append(fields, zap.String("rid", rid))
	}
	return fields
}
