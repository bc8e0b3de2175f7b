package db

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestUser_SetPassword_RoundTrip(t *testing.T) {
	user := &User{}
	if err := user.SetPasswordWithCost("correct horse battery staple", bcrypt.MinCost); err != nil {
		t.Fatalf("SetPasswordWithCost failed: %v", err)
	}

	if !user.VerifyPassword("correct horse battery staple") {
		t.Error("expected the original password to verify")
	}
	if user.VerifyPassword("wrong password") {
		t.Error("expected a different password to fail verification")
	}
}

func TestUser_SetPassword_EmptyRejected(t *testing.T) {
	user := &User{}
	if err := user.SetPasswordWithCost("", bcrypt.MinCost); err != ErrEmptyPassword {
		t.Errorf("expected ErrEmptyPassword, got %v", err)
	}
	if user.VerifyPassword("") {
		t.Error("user with no stored hash must never verify")
	}
}

func TestUser_SetPassword_SaltedPerCall(t *testing.T) {
	a := &User{}
	b := &User{}
	if err := a.SetPasswordWithCost("same password", bcrypt.MinCost); err != nil {
		t.Fatalf("SetPasswordWithCost failed: %v", err)
	}
	if err := b.SetPasswordWithCost("same password", bcrypt.MinCost); err != nil {
		t.Fatalf("SetPasswordWithCost failed: %v", err)
	}

	if a.passwordHash == b.passwordHash {
		t.Error("two hashes of the same password must differ due to salting")
	}
	if !a.VerifyPassword("same password") || !b.VerifyPassword("same password") {
		t.Error("both users should verify against the shared password")
	}
}

func TestUser_SetPassword_InvalidCost(t *testing.T) {
	user := &User{}
	if err := user.SetPasswordWithCost("a valid password", bcrypt.MaxCost+1); err == nil {
		t.Error("expected an out-of-range cost to surface as a hard error")
	}
	if user.passwordHash != "" {
		t.Error("a failed hash must never be stored")
	}
}

func TestUser_VerifyPassword_MalformedHash(t *testing.T) {
	user := &User{passwordHash: "not-a-bcrypt-hash"}
	if user.VerifyPassword("anything") {
		t.Error("a malformed stored hash must count as a mismatch")
	}
}

func TestRecord_Active(t *testing.T) {
	tests := []struct {
		name   string
		status int16
		want   bool
	}{
		{"active", StatusActive, true},
		{"deleted", StatusDeleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{Status: tt.status}
			if got := r.Active(); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}
