package middleware

import "context"

type contextKey string

const (
	ctxHouseID   contextKey = "house_id"
	ctxHouseName contextKey = "house_name"
	ctxAdmin     contextKey = "admin"
)

func HouseIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxHouseID).(string); ok {
		return v
	}
	return ""
}

func HouseNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxHouseName).(string); ok {
		return v
	}
	return ""
}

func IsAdminFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(ctxAdmin).(bool); ok {
		return v
	}
	return false
}

// WithHouseID injects the acting house identifier into the context.
func WithHouseID(ctx context.Context, houseID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxHouseID, houseID)
}

// WithAdmin marks the context as admin-scoped for downstream handlers.
func WithAdmin(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdmin, true)
}
