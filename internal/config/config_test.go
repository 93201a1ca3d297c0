package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/portfolio/internal/config"
)

const (
	strongJWT     = "a-strong-jwt-secret-for-tests"
	strongSession = "0123456789abcdef0123456789abcdef"
	csrfKey       = "abcdefghijklmnopqrstuvwxyz012345"
)

func validConfig() *config.Config {
	return &config.Config{
		Addr:          ":8080",
		Env:           config.EnvProduction,
		DatabasePath:  "portfolio.db",
		JWTSecret:     strongJWT,
		SessionSecret: strongSession,
		CSRFKey:       csrfKey,
	}
}

func TestValidate_InsecureJWT_FailsWhenNotDevelopment(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = "supersecretkey"

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for insecure JWT in non-development env")
	}
}

func TestValidate_InsecureSecrets_AllowsDevelopment(t *testing.T) {
	cfg := &config.Config{
		Env:          config.EnvDevelopment,
		DatabasePath: "portfolio.db",
		JWTSecret:    "supersecretkey",
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development env, got: %v", err)
	}
}

func TestValidate_EnvFallsBackToEnvironment(t *testing.T) {
	t.Setenv("PORTFOLIO_ENV", "development")

	cfg := &config.Config{DatabasePath: "portfolio.db"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected development from environment, got: %v", err)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected IsDevelopment, env=%q", cfg.Env)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"short session secret", func(c *config.Config) { c.SessionSecret = "short" }, "session_secret"},
		{"missing csrf key", func(c *config.Config) { c.CSRFKey = "" }, "csrf_key"},
		{"bad csrf key length", func(c *config.Config) { c.CSRFKey = "tooshort" }, "32 bytes"},
		{"missing database", func(c *config.Config) { c.DatabasePath = "" }, "database_path"},
		{"bad tls policy", func(c *config.Config) { c.Mail.TLSPolicy = "sometimes" }, "tls_policy"},
		{"mail host without recipients", func(c *config.Config) { c.Mail.Host = "smtp.example.com" }, "mail.from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_DefaultsPopulated(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed unexpectedly: %v", err)
	}

	if cfg.SiteOwner != "Odedoyin Akindele" {
		t.Fatalf("unexpected SiteOwner %q", cfg.SiteOwner)
	}
	if cfg.APITimeout <= 0 || cfg.SessionMaxAge <= 0 || cfg.TokenDuration <= 0 {
		t.Fatalf("expected durations to be defaulted: %+v", cfg)
	}
	if cfg.WorkerCount != 2 {
		t.Fatalf("expected WorkerCount default 2, got %d", cfg.WorkerCount)
	}
	if cfg.Contact.Interval != 20*time.Second || cfg.Contact.Burst != 3 {
		t.Fatalf("unexpected contact limits: %+v", cfg.Contact)
	}
	if cfg.Mail.Port != 587 || cfg.Mail.TLSPolicy != "mandatory" {
		t.Fatalf("unexpected mail defaults: %+v", cfg.Mail)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, "PORTFOLIO_") {
			t.Setenv(k, "")
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	// Ensure environment does not interfere
	clearEnv(t)

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":8080")
	}
	if cfg.Env != config.EnvProduction {
		t.Fatalf("unexpected Env: got %q", cfg.Env)
	}
	if cfg.JWTSecret != "supersecretkey" {
		t.Fatalf("unexpected JWTSecret: got %q want %q", cfg.JWTSecret, "supersecretkey")
	}
	if cfg.DatabasePath != "portfolio.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "portfolio.db")
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 15*time.Second)
	}
	if cfg.TokenDuration != 1*time.Hour {
		t.Fatalf("unexpected TokenDuration: got %v want %v", cfg.TokenDuration, 1*time.Hour)
	}

	// defaults are development-only
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected default secrets to be rejected in production")
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORTFOLIO_ADDR", ":7070")
	t.Setenv("PORTFOLIO_MAIL_PORT", "2525")
	t.Setenv("PORTFOLIO_TOKEN_DURATION", "30m")
	t.Setenv("PORTFOLIO_WORKER_COUNT", "5")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.Mail.Port != 2525 || cfg.TokenDuration != 30*time.Minute || cfg.WorkerCount != 5 {
		t.Fatalf("environment not applied: %+v", cfg)
	}
}

func TestLoadConfig_BadEnvironmentValues(t *testing.T) {
	tests := map[string]string{
		"PORTFOLIO_TIMEOUT":      "soon",
		"PORTFOLIO_MAIL_PORT":    "smtp",
		"PORTFOLIO_WORKER_COUNT": "many",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := config.LoadConfig(""); err == nil {
				t.Fatalf("expected parse error for %s=%s", key, val)
			}
		})
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	content := []byte(`addr: ":9090"
jwt_secret: "filekey"
timeout: "30s"
database_path: "test.db"
token_duration: "2h"
site_owner: "Jane Doe"
mail:
  host: "smtp.example.com"
  port: 465
  from: "site@example.com"
  to: "me@example.com"
contact:
  interval: "1m"
  burst: 1
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":9090")
	}
	if cfg.JWTSecret != "filekey" {
		t.Fatalf("unexpected JWTSecret: got %q want %q", cfg.JWTSecret, "filekey")
	}
	if cfg.DatabasePath != "test.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "test.db")
	}
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 30*time.Second)
	}
	if cfg.TokenDuration != 2*time.Hour {
		t.Fatalf("unexpected TokenDuration: got %v want %v", cfg.TokenDuration, 2*time.Hour)
	}
	if cfg.SiteOwner != "Jane Doe" {
		t.Fatalf("unexpected SiteOwner %q", cfg.SiteOwner)
	}
	if cfg.Mail.Host != "smtp.example.com" || cfg.Mail.Port != 465 || cfg.Mail.To != "me@example.com" {
		t.Fatalf("unexpected Mail: %+v", cfg.Mail)
	}
	// unset keys keep their defaults
	if cfg.Mail.TLSPolicy != "mandatory" {
		t.Fatalf("expected TLSPolicy default to survive, got %q", cfg.Mail.TLSPolicy)
	}
	if cfg.Contact.Interval != time.Minute || cfg.Contact.Burst != 1 {
		t.Fatalf("unexpected Contact: %+v", cfg.Contact)
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("::: not yaml :::"), 0o600); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}

	if _, err := config.LoadConfig(path); err == nil {
		t.Fatalf("expected YAML decode error, got nil")
	}
}

func TestMailConfig_Recipients(t *testing.T) {
	m := config.MailConfig{To: " me@example.com, ,you@example.com "}
	got := m.Recipients()
	if len(got) != 2 || got[0] != "me@example.com" || got[1] != "you@example.com" {
		t.Fatalf("unexpected recipients %q", got)
	}
	if got := (config.MailConfig{}).Recipients(); len(got) != 0 {
		t.Fatalf("expected no recipients, got %q", got)
	}
}
