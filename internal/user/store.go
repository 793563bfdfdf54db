package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/skillsenselab/housekeeper/internal/database"
)

// ErrNotFound is returned when no record matches the lookup.
var ErrNotFound = errors.New("user: not found")

// ErrEmailTaken is returned when the email unique constraint is violated.
var ErrEmailTaken = errors.New("user: email already registered")

// ErrUsernameTaken is returned when the username unique constraint is violated.
var ErrUsernameTaken = errors.New("user: username already taken")

// Store is the credential store: the persistent mapping from identity key
// (email) and username to the stored record.
type Store interface {
	// Create inserts a new record. Duplicate email or username surfaces as
	// ErrEmailTaken / ErrUsernameTaken; concurrent registrations are
	// serialized by the database's unique indexes, so exactly one of two
	// racing inserts for the same email can ever succeed.
	Create(ctx context.Context, u *User) error

	// FindByEmail looks up a record by its case-normalized identity key.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByUsername looks up a record by username.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByID looks up a record by primary key.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// UpdateProfile applies a partial update to the record's profile fields
	// and returns the updated record.
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id uuid.UUID, newHash string) error

	// List returns all records.
	List(ctx context.Context) ([]User, error)
}

// gormStore implements Store on the shared database handle.
type gormStore struct {
	db *database.DB
}

// NewStore creates the gorm-backed credential store.
func NewStore(db *database.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Create(ctx context.Context, u *User) error {
	u.Email = NormalizeEmail(u.Email)
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

func (s *gormStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user: find by email: %w", err)
	}
	return &u, nil
}

func (s *gormStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user: find by username: %w", err)
	}
	return &u, nil
}

func (s *gormStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user: find by id: %w", err)
	}
	return &u, nil
}

func (s *gormStore) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if update.Username != nil {
		changes["username"] = *update.Username
	}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.LastName != nil {
		changes["last_name"] = *update.LastName
	}
	if update.Email != nil {
		changes["email"] = NormalizeEmail(*update.Email)
	}

	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(changes).Error
		if err != nil {
			return nil, translateUniqueViolation(err)
		}
	}

	return s.FindByID(ctx, id)
}

func (s *gormStore) UpdatePassword(ctx context.Context, id uuid.UUID, newHash string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).
		Update("password_hash", newHash).Error
	if err != nil {
		return fmt.Errorf("user: update password: %w", err)
	}
	return nil
}

func (s *gormStore) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user: list: %w", err)
	}
	return users, nil
}

// translateUniqueViolation maps database unique-constraint errors onto the
// store's sentinel errors.
func translateUniqueViolation(err error) error {
	switch {
	case database.IsUniqueViolation(err, "users.email"):
		return ErrEmailTaken
	case database.IsUniqueViolation(err, "users.username"):
		return ErrUsernameTaken
	default:
		return fmt.Errorf("user: store: %w", err)
	}
}
