package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: test-auth
environment: staging
server:
  port: 9090
auth:
  jwt:
    secret: yaml-secret
    access_token_ttl: 15m
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Config
	if err := Load("test-auth", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "test-auth" {
		t.Errorf("expected name 'test-auth', got %q", cfg.Name)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWT.Secret != "yaml-secret" {
		t.Errorf("expected yaml secret, got %q", cfg.Auth.JWT.Secret)
	}
	if cfg.Auth.JWT.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected 15m ttl, got %v", cfg.Auth.JWT.AccessTokenTTL)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("auth:\n  jwt:\n    secret: yaml-secret\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("AUTH_JWT_SECRET", "env-secret")

	var cfg Config
	if err := Load("test-auth", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Auth.JWT.Secret != "env-secret" {
		t.Errorf("expected env var to win, got %q", cfg.Auth.JWT.Secret)
	}
}

func TestLoadMissingFileSucceeds(t *testing.T) {
	var cfg Config
	if err := Load("nonexistent", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected Load to succeed with missing file, got %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Environment != "development" {
		t.Errorf("expected development, got %q", cfg.Environment)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.DSN == "" {
		t.Error("expected a default DSN")
	}
	if cfg.Auth.JWT.AccessTokenTTL != 30*time.Minute {
		t.Errorf("expected 30m ttl, got %v", cfg.Auth.JWT.AccessTokenTTL)
	}
	if cfg.Telemetry.Environment != "development" {
		t.Errorf("expected telemetry environment propagated, got %q", cfg.Telemetry.Environment)
	}
}

func TestValidateRequiresJWTSecret(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing JWT secret")
	}
	if !strings.Contains(err.Error(), "secret") {
		t.Errorf("expected secret error, got %v", err)
	}

	cfg.Auth.JWT.Secret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Auth.JWT.Secret = "s"
	cfg.Environment = "purgatory"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid environment")
	}
}

func TestFindFileWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/auth/config.yml": true,
	}}
	got := findFile(fs, configSearchPaths("auth"))
	if got != "./cmd/auth/config.yml" {
		t.Errorf("expected ./cmd/auth/config.yml, got %q", got)
	}

	if got := findFile(fs, configSearchPaths("other")); got != "" {
		t.Errorf("expected no match, got %q", got)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("AUTH_JWT_SECRET")

	want := map[string]bool{
		"auth_jwt_secret": false,
		"auth.jwt.secret": false,
		"auth.jwt_secret": false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("expected variant %q in %v", k, variants)
		}
	}
}
