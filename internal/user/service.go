package user

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/skillsenselab/housekeeper/internal/errors"
	"github.com/skillsenselab/housekeeper/internal/auth/password"
	"github.com/skillsenselab/housekeeper/internal/auth/token"
	"github.com/skillsenselab/housekeeper/internal/logger"
	"github.com/skillsenselab/housekeeper/internal/telemetry"
)

// Service composes the credential store, password hasher, and token service
// into the identity operations exposed over HTTP. All dependencies are
// injected at construction; the service holds no other state.
type Service struct {
	store   Store
	hasher  password.Hasher
	tokens  *token.Service
	log     *logger.Logger
	metrics *telemetry.Metrics
}

// NewService creates the identity service. metrics may be nil.
func NewService(store Store, hasher password.Hasher, tokens *token.Service, log *logger.Logger, metrics *telemetry.Metrics) *Service {
	return &Service{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		log:     log.WithComponent("identity"),
		metrics: metrics,
	}
}

// RegisterInput is the validated input for Register.
type RegisterInput struct {
	Username string
	Password string
	Name     string
	LastName string
	Email    string
}

// Register hashes the password and creates the identity record. Duplicate
// email or username surfaces as the corresponding client error; the
// uniqueness race is settled by the store's unique indexes.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	start := time.Now()

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if isPasswordPolicyError(err) {
			return apperrors.InvalidInput("password", err.Error())
		}
		return apperrors.Internal(err)
	}

	u := &User{
		Username:     in.Username,
		Name:         in.Name,
		LastName:     in.LastName,
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
	}

	if err := s.store.Create(ctx, u); err != nil {
		s.metrics.RecordOperation(ctx, "register", "error", time.Since(start))
		switch {
		case errors.Is(err, ErrEmailTaken):
			return apperrors.EmailTaken()
		case errors.Is(err, ErrUsernameTaken):
			return apperrors.UsernameTaken()
		default:
			return apperrors.DatabaseError(err)
		}
	}

	s.metrics.RecordOperation(ctx, "register", "ok", time.Since(start))
	s.log.Info("User registered", logger.Fields(
		logger.FieldUsername, u.Username,
		logger.FieldEmail, u.Email,
	))
	return nil
}

// Login verifies the credentials and issues a bearer token bound to the
// user's identity key. Any mismatch yields the same generic error.
func (s *Service) Login(ctx context.Context, username, plaintext string) (string, error) {
	start := time.Now()

	u, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.RecordOperation(ctx, "login", "denied", time.Since(start))
			return "", apperrors.InvalidCredentials()
		}
		return "", apperrors.DatabaseError(err)
	}

	if err := s.hasher.Verify(plaintext, u.PasswordHash); err != nil {
		s.metrics.RecordOperation(ctx, "login", "denied", time.Since(start))
		s.log.Warn("Login failed", logger.Fields(logger.FieldUsername, username))
		return "", apperrors.InvalidCredentials()
	}

	tok, err := s.tokens.Issue(u.Email, 0)
	if err != nil {
		return "", apperrors.Internal(err)
	}

	s.metrics.RecordOperation(ctx, "login", "ok", time.Since(start))
	s.log.Info("User logged in", logger.Fields(logger.FieldUsername, username))
	return tok, nil
}

// Authenticate is the session guard: it validates the bearer token and
// resolves its subject to a stored identity record. The record is
// re-checked on every call; a token that outlives its account is rejected.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*User, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		s.metrics.RecordError(ctx, string(tokenErrorCode(err)), "session_guard")
		switch {
		case errors.Is(err, token.ErrExpired):
			return nil, apperrors.TokenExpired()
		case errors.Is(err, token.ErrMissingSubject):
			return nil, apperrors.Unauthorized("Invalid token payload")
		default:
			return nil, apperrors.InvalidToken()
		}
	}

	u, err := s.store.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.Unauthorized("User not found")
		}
		return nil, apperrors.DatabaseError(err)
	}
	return u, nil
}

// UpdateProfile applies a partial update to the user's profile fields.
func (s *Service) UpdateProfile(ctx context.Context, u *User, update ProfileUpdate) (*User, error) {
	updated, err := s.store.UpdateProfile(ctx, u.ID, update)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, apperrors.NotFound("user")
		case errors.Is(err, ErrEmailTaken):
			return nil, apperrors.EmailTaken()
		case errors.Is(err, ErrUsernameTaken):
			return nil, apperrors.UsernameTaken()
		default:
			return nil, apperrors.DatabaseError(err)
		}
	}
	return updated, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, u *User, oldPassword, newPassword string) error {
	if err := s.hasher.Verify(oldPassword, u.PasswordHash); err != nil {
		return apperrors.WrongPassword()
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		if isPasswordPolicyError(err) {
			return apperrors.InvalidInput("new_password", err.Error())
		}
		return apperrors.Internal(err)
	}

	if err := s.store.UpdatePassword(ctx, u.ID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.NotFound("user")
		}
		return apperrors.DatabaseError(err)
	}

	s.log.Info("Password updated", logger.Fields(logger.FieldUsername, u.Username))
	return nil
}

// List returns the public profiles of all users.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	profiles := make([]Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].ToProfile())
	}
	return profiles, nil
}

// isPasswordPolicyError reports whether a Hash failure is the caller's
// fault rather than an internal one.
func isPasswordPolicyError(err error) bool {
	return errors.Is(err, password.ErrEmptyPassword) ||
		errors.Is(err, password.ErrTooShort) ||
		errors.Is(err, password.ErrTooLong)
}

func tokenErrorCode(err error) apperrors.ErrorCode {
	if errors.Is(err, token.ErrExpired) {
		return apperrors.ErrCodeTokenExpired
	}
	return apperrors.ErrCodeInvalidToken
}
