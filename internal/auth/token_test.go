package auth

import (
	"strings"
	"testing"
	"time"
)

func TestTokenService_IssueValidate_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	userID, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if userID != 42 {
		t.Errorf("expected user ID 42, got %d", userID)
	}
}

func TestTokenService_Expiry(t *testing.T) {
	svc := NewTokenService("test-secret", time.Minute)

	issued := time.Now()
	svc.now = func() time.Time { return issued }

	token, err := svc.Issue(7)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// One second before expiry the token is still valid
	svc.now = func() time.Time { return issued.Add(59 * time.Second) }
	if _, err := svc.Validate(token); err != nil {
		t.Errorf("expected token to be valid before expiry, got %v", err)
	}

	// One second past expiry it is reported as expired, not merely invalid
	svc.now = func() time.Time { return issued.Add(61 * time.Second) }
	if _, err := svc.Validate(token); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_TamperedSignature(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Flip a character in the signature segment
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected a three-segment JWT, got %d segments", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := svc.Validate(tampered); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for a tampered token, got %v", err)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-one", time.Hour)
	verifier := NewTokenService("secret-two", time.Hour)

	token, err := issuer.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := verifier.Validate(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for a foreign secret, got %v", err)
	}
}

func TestTokenService_Garbage(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Validate(input); err != ErrInvalidToken {
			t.Errorf("Validate(%q): expected ErrInvalidToken, got %v", input, err)
		}
	}
}
