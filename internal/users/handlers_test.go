package users

import (
	"strings"
	"testing"
)

func TestValidateRegister(t *testing.T) {
	valid := RegisterRequest{
		Name:                 "Alice Example",
		Email:                "alice@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	}

	tests := []struct {
		name    string
		mutate  func(r *RegisterRequest)
		wantErr bool
	}{
		{"valid request", func(r *RegisterRequest) {}, false},
		{"name too short", func(r *RegisterRequest) { r.Name = "ab" }, true},
		{"name only whitespace", func(r *RegisterRequest) { r.Name = "   " }, true},
		{"name too long", func(r *RegisterRequest) { r.Name = strings.Repeat("a", 256) }, true},
		{"email missing at", func(r *RegisterRequest) { r.Email = "aliceexample.com" }, true},
		{"email missing domain", func(r *RegisterRequest) { r.Email = "alice@" }, true},
		{"email with spaces", func(r *RegisterRequest) { r.Email = "alice @example.com" }, true},
		{"password too short", func(r *RegisterRequest) {
			r.Password = "short"
			r.PasswordConfirmation = "short"
		}, true},
		{"password too long", func(r *RegisterRequest) {
			long := strings.Repeat("a", 256)
			r.Password = long
			r.PasswordConfirmation = long
		}, true},
		{"confirmation mismatch", func(r *RegisterRequest) { r.PasswordConfirmation = "different123" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := validateRegister(&req)
			if tt.wantErr && err == nil {
				t.Error("expected a validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
