package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"eventregistry/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdminRepo is an in-memory AdminRepository for tests.
type fakeAdminRepo struct {
	byEmail map[string]*domain.Admin
	nextID  int
	getErr  error
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{byEmail: map[string]*domain.Admin{}, nextID: 1}
}

func (f *fakeAdminRepo) Create(ctx context.Context, a *domain.Admin) error {
	if _, ok := f.byEmail[a.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	a.ID = fmt.Sprintf("adm-%d", f.nextID)
	f.nextID++
	f.byEmail[a.Email] = a
	return nil
}

func (f *fakeAdminRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if a, ok := f.byEmail[email]; ok {
		return a, nil
	}
	return nil, domain.ErrAdminNotFound
}

func (f *fakeAdminRepo) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	for _, a := range f.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domain.ErrAdminNotFound
}

// plainHasher stores salt:password; good enough to exercise the service.
type plainHasher struct{}

func (plainHasher) GenerateSalt() (string, error) { return "salt", nil }

func (plainHasher) Hash(salt, password string) (string, error) { return salt + ":" + password, nil }

func (plainHasher) Compare(hash, salt, password string) error {
	if hash != salt+":"+password {
		return domain.ErrInvalidPassword
	}
	return nil
}

type fakeIssuer struct{ lastExpiry time.Duration }

func (f *fakeIssuer) Issue(adminID, email string, expiry time.Duration) (string, error) {
	f.lastExpiry = expiry
	return "token-for-" + adminID, nil
}

func TestAuthService_EnsureAdminAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAdminRepo()
	issuer := &fakeIssuer{}
	svc := NewAuthService(repo, plainHasher{}, issuer, 2*time.Hour)

	admin, created, err := svc.EnsureAdmin(ctx, " Ops@Example.com ", "long-enough", "Ops")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ops@example.com", admin.Email)

	again, created, err := svc.EnsureAdmin(ctx, "ops@example.com", "ignored", "Ops")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	token, got, err := svc.Login(ctx, "OPS@example.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, "token-for-"+admin.ID, token)
	assert.Equal(t, admin.ID, got.ID)
	assert.Equal(t, 2*time.Hour, issuer.lastExpiry)

	_, _, err = svc.Login(ctx, "ops@example.com", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	_, _, err = svc.Login(ctx, "nobody@example.com", "long-enough")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)

	byID, err := svc.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.Email, byID.Email)
}

func TestAuthService_EnsureAdminValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(newFakeAdminRepo(), plainHasher{}, &fakeIssuer{}, time.Hour)

	_, _, err := svc.EnsureAdmin(ctx, "not-an-email", "long-enough", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = svc.EnsureAdmin(ctx, "ops@example.com", "short", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	repo := newFakeAdminRepo()
	repo.getErr = errors.New("db down")
	svc = NewAuthService(repo, plainHasher{}, &fakeIssuer{}, time.Hour)
	_, _, err = svc.Login(ctx, "ops@example.com", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidPassword)
}
