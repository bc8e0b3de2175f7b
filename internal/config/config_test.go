package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "30")
}

func TestLoad_RequiredSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "30")

	if _, err := Load(); err == nil {
		t.Error("expected an error when SECRET_KEY is missing")
	}
}

func TestLoad_RequiredTokenTTL(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "")

	if _, err := Load(); err == nil {
		t.Error("expected an error when ACCESS_TOKEN_EXPIRE_MINUTES is missing")
	}
}

func TestLoad_InvalidTokenTTL(t *testing.T) {
	tests := []string{"abc", "-5", "0"}
	for _, value := range tests {
		t.Run(value, func(t *testing.T) {
			t.Setenv("SECRET_KEY", "test-secret")
			t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", value)

			if _, err := Load(); err == nil {
				t.Errorf("expected an error for TTL %q", value)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Errorf("expected 30m token TTL, got %v", cfg.AccessTokenTTL)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("expected default bcrypt cost 12, got %d", cfg.BcryptCost)
	}
	if !cfg.AuthRecheckStatus {
		t.Error("expected status recheck to default on")
	}
	if cfg.ServerAddr != ":8080" {
		t.Errorf("expected default server addr :8080, got %s", cfg.ServerAddr)
	}
	if cfg.PresignExpiry != 15*time.Minute {
		t.Errorf("expected default presign expiry 15m, got %v", cfg.PresignExpiry)
	}
}

func TestLoad_BcryptCostClamped(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"below minimum", "2", 12},
		{"above maximum", "99", 12},
		{"not a number", "high", 12},
		{"in range", "10", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("BCRYPT_COST", tt.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.BcryptCost != tt.want {
				t.Errorf("expected bcrypt cost %d, got %d", tt.want, cfg.BcryptCost)
			}
		})
	}
}

func TestLoad_RecheckStatusToggle(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_RECHECK_STATUS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AuthRecheckStatus {
		t.Error("expected status recheck to be disabled")
	}
}
