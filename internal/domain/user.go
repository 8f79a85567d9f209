package domain

import (
	"context"
	"time"
)

// Role is the account role of a user.
type Role string

const (
	RoleGuest     Role = "guest"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(username, email string, role Role, createdAt, updatedAt time.Time) *User {
	return &User{
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// Claims is what a verified token says about its bearer.
type Claims struct {
	UserID string
	Role   Role
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, username string, role Role, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the claims of the authenticated user.
type TokenVerifier interface {
	Verify(token string) (Claims, error)
}

// UserRepository defines the interface for user storage.
// Lookups return ErrNotFound when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateCredential(ctx context.Context, id, passwordHash, salt string, updatedAt time.Time) error
}

// IdentityStore is the read-only view of user accounts used by the booking engine.
type IdentityStore interface {
	UserExists(ctx context.Context, id string) (bool, error)
	RoleOf(ctx context.Context, id string) (Role, error)
}

// UserService defines registration, authentication and credential rotation.
type UserService interface {
	Register(ctx context.Context, username, password, email string, role Role) (*User, error)
	Login(ctx context.Context, username, password string) (token string, user *User, err error)
	RotatePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	GetByID(ctx context.Context, id string) (*User, error)
}
