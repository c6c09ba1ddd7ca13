package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventregistry/internal/domain"
)

type adminRepository struct {
	DB Querier
}

func NewAdminRepository(db Querier) domain.AdminRepository {
	return &adminRepository{DB: db}
}

func (r *adminRepository) Create(ctx context.Context, a *domain.Admin) error {
	query := `
		INSERT INTO admins (email, password_hash, salt, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, a.Email, a.PasswordHash, a.Salt, a.Name, a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
	if c, ok := uniqueConstraint(err); ok && c == constraintAdminEmail {
		return domain.ErrDuplicateEmail
	}
	return err
}

func (r *adminRepository) get(ctx context.Context, where string, arg string) (*domain.Admin, error) {
	query := `
		SELECT id, email, password_hash, salt, name, created_at, updated_at
		FROM admins
		WHERE ` + where + ` = $1
	`
	a := &domain.Admin{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Salt, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAdminNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.get(ctx, "email", email)
}

func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	return r.get(ctx, "id", id)
}
