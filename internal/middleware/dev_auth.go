// internal/middleware/dev_auth.go
package middleware

import (
	"context"
	"log"
	"net/http"

	"superteam_academy/internal/model"
	"superteam_academy/internal/webutil"

	"github.com/google/uuid"
)

// DevUserContextMiddleware is the development-time replacement for JWT auth.
// It trusts the X-User-ID header and performs no DB validation.
func DevUserContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userIDStr := r.Header.Get("X-User-ID")
		if userIDStr == "" {
			log.Println("[DEV AUTH] Failed: X-User-ID header missing")
			webutil.RespondWithError(w, http.StatusUnauthorized, "[DEV] Unauthorized: Missing X-User-ID header")
			return
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			log.Printf("[DEV AUTH] Failed: Invalid X-User-ID format: %s", userIDStr)
			webutil.RespondWithError(w, http.StatusUnauthorized, "[DEV] Unauthorized: Invalid X-User-ID format")
			return
		}

		log.Printf("[DEV AUTH] User ID %s set to context (no validation)", userID)

		ctx := context.WithValue(r.Context(), model.UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
