package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/service"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "userID"

// JWTAuthMiddleware validates Bearer tokens and injects the user ID
// into the request context. Failures surface as domain.ErrUnauthorized
// through handleServiceError, so auth rejections use the same error
// body and logging as every other handler.
func JWTAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}

			claims, err := authSvc.ValidateAccessToken(token)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", &domain.ErrUnauthorized{Message: "authentication token not provided"}
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", &domain.ErrUnauthorized{Message: "invalid token format"}
	}
	return parts[1], nil
}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}
