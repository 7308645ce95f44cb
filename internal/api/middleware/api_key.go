package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/zatekoja/valetparking/backend/internal/infrastructure/observability"
)

// APIKeyHeader carries the shared secret of privileged callers
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests whose X-API-Key does not match key
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	expected := []byte(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := []byte(r.Header.Get(APIKeyHeader))
			if len(expected) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
				observability.LoggerFromContext(r.Context()).Warn().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Bool("key_present", len(provided) > 0).
					Msg("Rejected request with invalid API key")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"error":   "invalid or missing API key",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
