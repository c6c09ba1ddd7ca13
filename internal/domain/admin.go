package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for admin operations.
var (
	ErrAdminNotFound   = errors.New("admin not found")
	ErrDuplicateEmail  = errors.New("email already in use")
	ErrInvalidPassword = errors.New("invalid credentials")
)

// Admin is a dashboard operator.
// swagger:model Admin
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewAdmin returns a new Admin with the given fields. ID is typically set by the repository on create.
func NewAdmin(email, name, passwordHash, salt string, createdAt, updatedAt time.Time) *Admin {
	return &Admin{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Salt:         salt,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated admin.
type TokenIssuer interface {
	Issue(adminID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated admin ID.
type TokenVerifier interface {
	Verify(token string) (adminID string, err error)
}

// AdminRepository defines the interface for admin storage.
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
}

// AuthService authenticates dashboard operators.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, admin *Admin, err error)
	// EnsureAdmin creates the admin when no account exists for email. Used at startup.
	EnsureAdmin(ctx context.Context, email, password, name string) (*Admin, bool, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
}
