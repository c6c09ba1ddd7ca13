package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"eventregistry/internal/domain"
)

const minPasswordLen = 8

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	adminRepo domain.AdminRepository
	hasher    domain.PasswordHasher
	issuer    domain.TokenIssuer
	jwtExpiry time.Duration
}

// NewAuthService creates an AuthService for dashboard operators.
func NewAuthService(adminRepo domain.AdminRepository, hasher domain.PasswordHasher, issuer domain.TokenIssuer, jwtExpiry time.Duration) domain.AuthService {
	return &authService{
		adminRepo: adminRepo,
		hasher:    hasher,
		issuer:    issuer,
		jwtExpiry: jwtExpiry,
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return "", nil, domain.ErrInvalidPassword
		}
		return "", nil, fmt.Errorf("get admin: %w", err)
	}
	if err := s.hasher.Compare(admin.PasswordHash, admin.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidPassword
	}
	token, err := s.issuer.Issue(admin.ID, admin.Email, s.jwtExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, admin, nil
}

// EnsureAdmin creates the bootstrap admin when email is not registered yet.
func (s *authService) EnsureAdmin(ctx context.Context, email, password, name string) (*domain.Admin, bool, error) {
	email = normalizeEmail(email)
	if !emailRegexp.MatchString(email) {
		return nil, false, domain.InvalidInputError("invalid email format")
	}
	existing, err := s.adminRepo.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrAdminNotFound) {
		return nil, false, fmt.Errorf("get admin: %w", err)
	}
	if len(password) < minPasswordLen {
		return nil, false, domain.InvalidInputError("password must be at least %d characters", minPasswordLen)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, false, err
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, false, err
	}
	now := time.Now()
	admin := domain.NewAdmin(email, strings.TrimSpace(name), hash, salt, now, now)
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			existing, getErr := s.adminRepo.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, false, fmt.Errorf("get admin: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create admin: %w", err)
	}
	return admin, true, nil
}

func (s *authService) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	return s.adminRepo.GetByID(ctx, id)
}
