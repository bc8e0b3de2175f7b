package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/chatforge/backend/internal/errors"
)

type contextKey string

const UserContextKey contextKey = "user"

type UserContext struct {
	UserID int64
	Email  string
}

// Middleware validates the bearer token on incoming requests and attaches
// the resolved user to the context. Every token defect is rejected with 401.
func Middleware(authService *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := apperrors.GetRequestID(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apperrors.WriteError(w, requestID, apperrors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				apperrors.WriteError(w, requestID, apperrors.Unauthorized("invalid authorization header format"))
				return
			}

			user, err := authService.CurrentUser(r.Context(), parts[1])
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired):
					apperrors.WriteError(w, requestID, apperrors.TokenExpired())
				case errors.Is(err, ErrInvalidToken):
					apperrors.WriteError(w, requestID, apperrors.InvalidToken())
				default:
					apperrors.WriteError(w, requestID, apperrors.InternalError("failed to authenticate request"))
				}
				return
			}

			userCtx := &UserContext{
				UserID: user.ID,
				Email:  user.Email,
			}

			ctx := context.WithValue(r.Context(), UserContextKey, userCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserFromContext(ctx context.Context) *UserContext {
	user, ok := ctx.Value(UserContextKey).(*UserContext)
	if !ok {
		return nil
	}
	return user
}
