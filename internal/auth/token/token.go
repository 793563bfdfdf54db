// Package token issues and validates the signed bearer tokens that assert a
// user's identity.
//
// A token carries the identity key (email) as its subject plus the standard
// issued-at and expiry claims, signed with a process-wide shared secret. The
// validator is pure: it checks signature and time bounds only, and never
// consults storage — resolving the subject to a stored identity is the
// session guard's job.
package token

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// ErrBadSignature is returned for a malformed token or one whose signature
// does not verify against the shared secret.
var ErrBadSignature = errors.New("token: bad signature")

// ErrExpired is returned for a well-signed token past its expiry.
var ErrExpired = errors.New("token: expired")

// ErrMissingSubject is returned for a valid token with no subject claim.
var ErrMissingSubject = errors.New("token: missing subject")

// Claims is the decoded payload of a bearer token.
type Claims struct {
	gojwt.RegisteredClaims
}

// Service issues and validates bearer tokens.
type Service struct {
	cfg Config
	now func() time.Time
}

// Option configures the token service.
type Option func(*Service)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a token service. The signing secret is required.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	s := &Service{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue creates a signed token asserting the given identity key for ttl.
// A non-positive ttl falls back to the configured default (30 minutes).
func (s *Service) Issue(identityKey string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.cfg.AccessTokenTTL
	}
	now := s.now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   identityKey,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := gojwt.NewWithClaims(s.cfg.signingMethod(), claims)
	signed, err := tok.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature and time bounds of tokenString and returns
// its claims. Failures map to exactly one of ErrBadSignature, ErrExpired, or
// ErrMissingSubject.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc, s.parserOptions()...)
	if err != nil {
		// Expiry is reported distinctly; every other parse failure is a
		// signature/format problem from the caller's point of view.
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrBadSignature
	}
	if !tok.Valid {
		return nil, ErrBadSignature
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// keyFunc is the jwt.Keyfunc used during token parsing.
func (s *Service) keyFunc(tok *gojwt.Token) (interface{}, error) {
	expected := s.cfg.signingMethod()
	if tok.Method.Alg() != expected.Alg() {
		return nil, fmt.Errorf("token: unexpected signing method: %s", tok.Method.Alg())
	}
	return []byte(s.cfg.Secret), nil
}

// parserOptions returns jwt.ParserOption based on config.
func (s *Service) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.cfg.signingMethod().Alg()}),
		gojwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}
	return opts
}
