package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/chatforge/backend/internal/db"
)

// fakeUserStore backs the auth service with an in-memory user set.
type fakeUserStore struct {
	users map[int64]*db.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*db.User)}
}

func (s *fakeUserStore) add(id int64, email, password string, status int16) *db.User {
	user := &db.User{Name: "Test User", Email: email}
	user.ID = id
	user.CreatedAt = time.Now()
	user.Status = status
	if password != "" {
		if err := user.SetPasswordWithCost(password, bcrypt.MinCost); err != nil {
			panic(err)
		}
	}
	s.users[id] = user
	return user
}

func (s *fakeUserStore) FindActiveByEmail(ctx context.Context, email string) (*db.User, error) {
	for _, u := range s.users {
		if u.Email == email && u.Active() {
			return u, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(ctx context.Context, id int64) (*db.User, error) {
	if u, ok := s.users[id]; ok && u.Active() {
		return u, nil
	}
	return nil, db.ErrUserNotFound
}

func (s *fakeUserStore) GetByIDAnyStatus(ctx context.Context, id int64) (*db.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, db.ErrUserNotFound
}

func newTestService(store *fakeUserStore, recheck bool) *Service {
	tokens := NewTokenService("test-secret", time.Hour)
	return NewService(store, tokens, recheck)
}

func TestService_Authenticate_Success(t *testing.T) {
	store := newFakeUserStore()
	store.add(1, "alice@example.com", "password123", db.StatusActive)
	svc := newTestService(store, true)

	user, err := svc.Authenticate(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.ID != 1 {
		t.Errorf("expected user ID 1, got %d", user.ID)
	}
}

func TestService_Authenticate_NormalizesIdentifier(t *testing.T) {
	store := newFakeUserStore()
	store.add(1, "alice@example.com", "password123", db.StatusActive)
	svc := newTestService(store, true)

	if _, err := svc.Authenticate(context.Background(), "  ALICE@Example.COM ", "password123"); err != nil {
		t.Errorf("expected case and whitespace variants to authenticate, got %v", err)
	}
}

// All login failures must be indistinguishable: a missing account, a
// soft-deleted account and a wrong password return the identical error.
func TestService_Authenticate_IndistinguishableFailures(t *testing.T) {
	store := newFakeUserStore()
	store.add(1, "alice@example.com", "password123", db.StatusActive)
	store.add(2, "gone@example.com", "password123", db.StatusDeleted)
	svc := newTestService(store, true)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "password123"},
		{"wrong password", "alice@example.com", "wrong"},
		{"deleted account", "gone@example.com", "password123"},
		{"empty password", "alice@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tt.email, tt.password)
			if err != ErrInvalidCredentials {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestService_CurrentUser_FullFlow(t *testing.T) {
	store := newFakeUserStore()
	store.add(1, "alice@example.com", "password123", db.StatusActive)
	svc := newTestService(store, true)

	user, err := svc.Authenticate(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	token, err := svc.tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	resolved, err := svc.CurrentUser(context.Background(), token)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("expected user ID %d, got %d", user.ID, resolved.ID)
	}
}

func TestService_CurrentUser_DeletedSubject(t *testing.T) {
	store := newFakeUserStore()
	user := store.add(1, "alice@example.com", "password123", db.StatusActive)

	recheck := newTestService(store, true)
	lenient := NewService(store, recheck.tokens, false)

	token, err := recheck.tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Soft delete after issuance
	user.Status = db.StatusDeleted

	if _, err := recheck.CurrentUser(context.Background(), token); err != ErrInvalidToken {
		t.Errorf("with status recheck, expected ErrInvalidToken for a deleted subject, got %v", err)
	}

	if _, err := lenient.CurrentUser(context.Background(), token); err != nil {
		t.Errorf("without status recheck, expected the deleted subject to resolve, got %v", err)
	}
}

func TestService_CurrentUser_MissingSubject(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store, true)

	token, err := svc.tokens.Issue(999)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.CurrentUser(context.Background(), token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for an unresolvable subject, got %v", err)
	}
}
