package token

import (
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(Config{Secret: "test-secret"}, opts...)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return s
}

func TestIssueAndValidate(t *testing.T) {
	s := newTestService(t)

	tok, err := s.Issue("a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := s.Validate(tok)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Subject != "a@x.com" {
		t.Errorf("expected subject 'a@x.com', got %q", claims.Subject)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected issued-at and expiry claims to be set")
	}
	gotTTL := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if gotTTL != time.Minute {
		t.Errorf("expected 1m ttl, got %v", gotTTL)
	}
}

func TestIssueDefaultTTL(t *testing.T) {
	s := newTestService(t)

	tok, err := s.Issue("a@x.com", 0)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := s.Validate(tok)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	gotTTL := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if gotTTL != 30*time.Minute {
		t.Errorf("expected default 30m ttl, got %v", gotTTL)
	}
}

func TestValidateExpired(t *testing.T) {
	now := time.Now()
	clock := now
	s := newTestService(t, WithNow(func() time.Time { return clock }))

	tok, err := s.Issue("a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Still valid just before expiry.
	clock = now.Add(59 * time.Second)
	if _, err := s.Validate(tok); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	// Expired afterwards, and reported as expiry, not as a bad signature.
	clock = now.Add(2 * time.Minute)
	_, err = s.Validate(tok)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestValidateBadSignature(t *testing.T) {
	s := newTestService(t)
	other, err := NewService(Config{Secret: "different-secret"})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	tok, err := other.Issue("a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := s.Validate(tok); !errors.Is(err, ErrBadSignature) {
		t.Errorf("expected ErrBadSignature, got %v", err)
	}
}

func TestValidateGarbage(t *testing.T) {
	s := newTestService(t)
	for _, tok := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		if _, err := s.Validate(tok); !errors.Is(err, ErrBadSignature) {
			t.Errorf("token %q: expected ErrBadSignature, got %v", tok, err)
		}
	}
}

func TestValidateMissingSubject(t *testing.T) {
	s := newTestService(t)

	tok, err := s.Issue("", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := s.Validate(tok); !errors.Is(err, ErrMissingSubject) {
		t.Errorf("expected ErrMissingSubject, got %v", err)
	}
}

func TestValidateIssuerMismatch(t *testing.T) {
	issuing, err := NewService(Config{Secret: "test-secret", Issuer: "svc-a"})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	validating, err := NewService(Config{Secret: "test-secret", Issuer: "svc-b"})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	tok, err := issuing.Issue("a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := validating.Validate(tok); !errors.Is(err, ErrBadSignature) {
		t.Errorf("expected ErrBadSignature for issuer mismatch, got %v", err)
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService(Config{}); err == nil {
		t.Error("expected error for missing secret")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Secret: "s"}
	cfg.ApplyDefaults()
	if cfg.Method != HS256 {
		t.Errorf("expected HS256 default, got %q", cfg.Method)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Errorf("expected 30m default ttl, got %v", cfg.AccessTokenTTL)
	}
}
