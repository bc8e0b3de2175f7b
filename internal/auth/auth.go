package auth

import (
	"context"
	"errors"

	"github.com/chatforge/backend/internal/db"
)

// Service orchestrates login. It looks a user up by identifier, delegates
// password verification to the user record and leaves token issuance to the
// caller.
type Service struct {
	users  UserStore
	tokens *TokenService

	// recheckStatus controls whether every authenticated request verifies
	// the subject is still active, or only that the row exists.
	recheckStatus bool
}

func NewService(users UserStore, tokens *TokenService, recheckStatus bool) *Service {
	return &Service{
		users:         users,
		tokens:        tokens,
		recheckStatus: recheckStatus,
	}
}

// Authenticate verifies identifier + password against the active user set.
// A missing user, an inactive user and a wrong password all fail with the
// same ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*db.User, error) {
	email := NormalizeIdentifier(identifier)

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// CurrentUser resolves the bearer token to a user record.
func (s *Service) CurrentUser(ctx context.Context, tokenString string) (*db.User, error) {
	if s.recheckStatus {
		return s.tokens.ResolveUser(ctx, tokenString, s.users)
	}

	userID, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByIDAnyStatus(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

// GetUser fetches an active user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*db.User, error) {
	return s.users.GetByID(ctx, id)
}
