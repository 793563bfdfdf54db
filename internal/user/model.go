// Package user implements the identity domain: the credential store, the
// registration/login/profile service, and the HTTP handlers for the
// authentication surface.
package user

import (
	"embed"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MigrationsFS embeds the SQL migrations that create the users table and
// its unique indexes. Uniqueness of email and username is enforced by the
// schema, never by application-level existence checks.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath is the path of the migration files inside MigrationsFS.
const MigrationsPath = "migrations"

// User is the stored identity record. The email is the identity key and is
// kept case-normalized; the password hash never leaves the service.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex:idx_users_email;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex:idx_users_username;not null" json:"username"`
	Name         string    `json:"name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// BeforeCreate generates a UUID if not already set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// NormalizeEmail lowercases and trims an email for use as the identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile is the public view of a user, safe to return to clients.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
}

// ToProfile converts a stored record to its public view.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:       u.ID.String(),
		Username: u.Username,
		Name:     u.Name,
		LastName: u.LastName,
		Email:    u.Email,
	}
}

// ProfileUpdate carries a partial profile change. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Username *string `json:"username"`
	Name     *string `json:"name"`
	LastName *string `json:"last_name"`
	Email    *string `json:"email"`
}
