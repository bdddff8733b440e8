package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AdminKeyHeader carries the shared secret when it is not given as ?key=.
const AdminKeyHeader = "x-admin-key"

// Preflight sets permissive CORS headers for maintenance endpoints and
// answers OPTIONS requests with 204 before any key check runs.
func Preflight(methods, headers string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminKey gates a route behind a shared secret supplied as the
// ?key= query parameter or the x-admin-key header. An unset secret fails closed.
func RequireAdminKey(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeJSONError(w, http.StatusInternalServerError, "BACKFILL_KEY not configured")
				return
			}
			provided := r.URL.Query().Get("key")
			if provided == "" {
				provided = r.Header.Get(AdminKeyHeader)
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				writeJSONError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
