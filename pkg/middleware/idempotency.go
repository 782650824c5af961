package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gatherle/notification-service/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// IdempotencyKeyCtx is the context key for the client supplied idempotency key
	IdempotencyKeyCtx ContextKey = "idempotency_key"

	// IdempotencyKeyHeader is the request header carrying the key
	IdempotencyKeyHeader = "Idempotency-Key"

	maxIdempotencyKeyLength = 128
)

// IdempotencyKey copies the Idempotency-Key header into the request context
func IdempotencyKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if len(key) > maxIdempotencyKeyLength {
			response.BadRequest(w, "Idempotency-Key must be at most 128 characters")
			return
		}

		ctx := context.WithValue(r.Context(), IdempotencyKeyCtx, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdempotencyKey extracts the idempotency key from the request context
func GetIdempotencyKey(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(IdempotencyKeyCtx).(string)
	return key, ok
}
