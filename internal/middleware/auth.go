package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"superteam_academy/internal/config"
	"superteam_academy/internal/model"
	"superteam_academy/internal/webutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTAuthMiddleware validates the Authorization bearer token and places the
// authenticated user ID into the request context.
func JWTAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("JWT auth failed: Authorization header missing")
				appErr := model.NewAppError("UNAUTHORIZED", "Authorization header is required.", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				logger.Warn("JWT auth failed: Invalid Authorization header format")
				appErr := model.NewAppError("UNAUTHORIZED", "Authorization header format is invalid.", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}
			tokenString := headerParts[1]

			// jwt.Parse checks both the signature and the exp claim.
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, model.NewAppError("UNEXPECTED_SIGNING_METHOD", "Unexpected signing method.", "", errors.New("unexpected signing method"))
				}
				return []byte(cfg.JWT.SecretKey), nil
			})

			if err != nil {
				logger.Warn("JWT auth failed: Invalid token", "error", err)
				appErr := model.NewAppError("INVALID_TOKEN", "Token is invalid.", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
				subject, err := claims.GetSubject()
				if err != nil {
					logger.Warn("JWT auth failed: Subject (sub) claim missing", "error", err)
					appErr := model.NewAppError("INVALID_TOKEN", "Token carries no user identity.", "", model.ErrForbidden)
					webutil.HandleError(w, logger, appErr)
					return
				}

				userID, err := uuid.Parse(subject)
				if err != nil {
					logger.Warn("JWT auth failed: Invalid subject (sub) format", "subject", subject, "error", err)
					appErr := model.NewAppError("INVALID_TOKEN", "Token user identity is malformed.", "", model.ErrForbidden)
					webutil.HandleError(w, logger, appErr)
					return
				}

				ctx := context.WithValue(r.Context(), model.UserIDKey, userID)
				next.ServeHTTP(w, r.WithContext(ctx))
			} else {
				logger.Warn("JWT auth failed: Unknown claims type or invalid token")
				appErr := model.NewAppError("INVALID_TOKEN", "Token is invalid.", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
			}
		})
	}
}

// GetUserIDFromContext extracts the authenticated user ID set by the auth
// middleware. A miss means the middleware chain is misconfigured.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	value, ok := ctx.Value(model.UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Could not resolve user identity from context.", "", model.ErrInternalServer)
	}
	return value, nil
}
