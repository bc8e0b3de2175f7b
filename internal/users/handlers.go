package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/chatforge/backend/internal/auth"
	"github.com/chatforge/backend/internal/db"
	apperrors "github.com/chatforge/backend/internal/errors"
	"github.com/chatforge/backend/internal/logger"
	"github.com/chatforge/backend/internal/metrics"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RegisterRequest is the account creation request body.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// UpdatePasswordRequest is the password change request body.
type UpdatePasswordRequest struct {
	OldPassword             string `json:"old_password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

type Handlers struct {
	users      *db.UserRepository
	bcryptCost int
	metrics    *metrics.Metrics
}

func NewHandlers(users *db.UserRepository, bcryptCost int, m *metrics.Metrics) *Handlers {
	return &Handlers{users: users, bcryptCost: bcryptCost, metrics: m}
}

func validateRegister(req *RegisterRequest) *apperrors.AppError {
	name := strings.TrimSpace(req.Name)
	if len(name) < 3 || len(name) > 255 {
		return apperrors.ValidationError("name must be between 3 and 255 characters")
	}
	if !emailPattern.MatchString(req.Email) {
		return apperrors.ValidationError("email address is not valid")
	}
	if len(req.Password) < 8 || len(req.Password) > 255 {
		return apperrors.ValidationError("password must be between 8 and 255 characters")
	}
	if req.Password != req.PasswordConfirmation {
		return apperrors.ValidationError("passwords do not match")
	}
	return nil
}

// Register creates a new user account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid JSON body"))
		return
	}

	if appErr := validateRegister(&req); appErr != nil {
		apperrors.WriteError(w, requestID, appErr)
		return
	}

	user := &db.User{
		Name:  strings.TrimSpace(req.Name),
		Email: auth.NormalizeIdentifier(req.Email),
	}

	// A failed hash is a hard stop. The account must never be created with
	// a missing or malformed credential.
	if err := user.SetPasswordWithCost(req.Password, h.bcryptCost); err != nil {
		logger.Error(ctx, "Password hashing failed", err, map[string]any{
			"component": "users",
		})
		apperrors.WriteError(w, requestID, apperrors.HashingFailure())
		return
	}

	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrEmailExists) {
			apperrors.WriteError(w, requestID, apperrors.EmailExists())
			return
		}
		logger.Error(ctx, "Failed to create user", err, map[string]any{
			"component": "users",
		})
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to create user"))
		return
	}

	h.metrics.IncCounter(metrics.CounterUsersCreated)
	logger.Info(ctx, "User registered", map[string]any{
		"component": "users",
		"user_id":   user.ID,
	})

	apperrors.WriteJSON(w, requestID, http.StatusCreated, auth.NewUserInfo(user))
}

// Get returns a single active user by ID.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid user ID"))
		return
	}

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			apperrors.WriteError(w, requestID, apperrors.UserNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to load user"))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, auth.NewUserInfo(user))
}

// Delete soft deletes the authenticated user's own account.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid user ID"))
		return
	}

	userCtx := auth.GetUserFromContext(ctx)
	if userCtx == nil {
		apperrors.WriteError(w, requestID, apperrors.Unauthorized("not authenticated"))
		return
	}
	if userCtx.UserID != id {
		apperrors.WriteError(w, requestID, apperrors.Forbidden("cannot delete another user's account"))
		return
	}

	user, err := h.users.SoftDelete(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			apperrors.WriteError(w, requestID, apperrors.UserNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to delete user"))
		return
	}

	logger.Info(ctx, "User deleted", map[string]any{
		"component": "users",
		"user_id":   user.ID,
	})

	apperrors.WriteJSON(w, requestID, http.StatusOK, auth.NewUserInfo(user))
}

// UpdatePassword changes the authenticated user's password after verifying
// the current one.
func (h *Handlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	userCtx := auth.GetUserFromContext(ctx)
	if userCtx == nil {
		apperrors.WriteError(w, requestID, apperrors.Unauthorized("not authenticated"))
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid JSON body"))
		return
	}

	if len(req.NewPassword) < 8 || len(req.NewPassword) > 255 {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("password must be between 8 and 255 characters"))
		return
	}
	if req.NewPassword != req.NewPasswordConfirmation {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("passwords do not match"))
		return
	}

	user, err := h.users.GetByID(ctx, userCtx.UserID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			apperrors.WriteError(w, requestID, apperrors.UserNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to load user"))
		return
	}

	if !user.VerifyPassword(req.OldPassword) {
		apperrors.WriteError(w, requestID, apperrors.InvalidCredentials())
		return
	}
	if req.NewPassword == req.OldPassword {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("new password must differ from the current one"))
		return
	}

	if err := user.SetPasswordWithCost(req.NewPassword, h.bcryptCost); err != nil {
		logger.Error(ctx, "Password hashing failed", err, map[string]any{
			"component": "users",
		})
		apperrors.WriteError(w, requestID, apperrors.HashingFailure())
		return
	}

	if err := h.users.UpdatePassword(ctx, user); err != nil {
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to update password"))
		return
	}

	logger.Info(ctx, "Password updated", map[string]any{
		"component": "users",
		"user_id":   user.ID,
	})

	apperrors.WriteJSON(w, requestID, http.StatusOK, map[string]string{
		"status": "password updated",
	})
}
