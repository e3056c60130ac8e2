package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-catalog/internal/jwt"
	"github.com/sbilibin2017/gw-catalog/internal/logger"
	"github.com/sbilibin2017/gw-catalog/internal/models"
	"github.com/sbilibin2017/gw-catalog/internal/services"
)

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=middlewares

// Tokener extracts the bearer token from a request.
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
}

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*models.UserDB, error)
}

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
	requestIDKey
)

// WithUser stores the authenticated user and its token in the context.
func WithUser(ctx context.Context, user *models.UserDB, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}

// UserFromContext returns the user set by AuthMiddleware.
func UserFromContext(ctx context.Context) (*models.UserDB, bool) {
	user, ok := ctx.Value(userKey).(*models.UserDB)
	return user, ok && user != nil
}

// TokenFromContext returns the bearer token the request was authenticated with.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// AuthMiddleware rejects requests without a valid bearer token and attaches
// the token's user to the request context.
func AuthMiddleware(tokener Tokener, auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				logger.Log.Warnw("authorization failed", "err", err)
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			user, err := auth.Authenticate(ctx, tokenString)
			if err != nil {
				status, message := authFailure(err)
				if status == http.StatusInternalServerError {
					logger.Log.Errorw("authorization failed", "err", err)
				} else {
					logger.Log.Warnw("authorization failed", "err", err)
				}
				writeError(w, status, message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user, tokenString)))
		})
	}
}

func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, jwt.ErrTokenInvalid):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, services.ErrTokenRevoked):
		return http.StatusUnauthorized, "Token revoked"
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusUnauthorized, "User not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// RequireRole lets through only users holding role. It must run after AuthMiddleware.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if user.Role != role {
				logger.Log.Warnw("access denied", "user_id", user.ID, "role", user.Role, "required", role)
				writeError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
