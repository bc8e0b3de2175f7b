package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/chatforge/backend/internal/db"
	apperrors "github.com/chatforge/backend/internal/errors"
	"github.com/chatforge/backend/internal/metrics"
)

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserInfo is the public shape of a user. The password hash has no place
// here or anywhere else in a response.
type UserInfo struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Status    int16     `json:"status"`
}

func NewUserInfo(user *db.User) *UserInfo {
	return &UserInfo{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Status:    user.Status,
	}
}

type Handlers struct {
	authService *Service
	tokens      *TokenService
	metrics     *metrics.Metrics
}

func NewHandlers(authService *Service, tokens *TokenService, m *metrics.Metrics) *Handlers {
	return &Handlers{authService: authService, tokens: tokens, metrics: m}
}

// Token handles the form-encoded login request and issues an access token.
func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	if err := r.ParseForm(); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid form body"))
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("username and password are required"))
		return
	}

	user, err := h.authService.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.metrics.IncCounter(metrics.CounterLoginFailures)
			apperrors.WriteError(w, requestID, apperrors.InvalidCredentials())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.InternalError("login failed"))
		return
	}

	accessToken, err := h.tokens.Issue(user.ID)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.InternalError("failed to issue token"))
		return
	}

	h.metrics.IncCounter(metrics.CounterTokensIssued)
	apperrors.WriteJSON(w, requestID, http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}

// Me returns the authenticated user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	userCtx := GetUserFromContext(r.Context())
	if userCtx == nil {
		apperrors.WriteError(w, requestID, apperrors.Unauthorized("not authenticated"))
		return
	}

	user, err := h.authService.GetUser(r.Context(), userCtx.UserID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			apperrors.WriteError(w, requestID, apperrors.InvalidToken())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.InternalError("failed to load user"))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, NewUserInfo(user))
}
