package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventregistry/internal/domain"
)

type fixedNumberRepository struct {
	DB Querier
}

func NewFixedNumberRepository(db Querier) domain.FixedNumberRepository {
	return &fixedNumberRepository{DB: db}
}

func (r *fixedNumberRepository) Create(ctx context.Context, f *domain.FixedNumber) error {
	query := `
		INSERT INTO fixed_numbers (nickname, number, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, f.Nickname, f.Number, f.CreatedAt).Scan(&f.ID)
	if c, ok := uniqueConstraint(err); ok {
		switch c {
		case constraintFixedNumberNickname:
			return domain.ErrDuplicateIdentifier
		case constraintFixedNumberNumber:
			return domain.ErrDuplicateNumber
		}
	}
	return err
}

func (r *fixedNumberRepository) getOne(ctx context.Context, where string, arg any) (*domain.FixedNumber, error) {
	f := &domain.FixedNumber{}
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, nickname, number, created_at FROM fixed_numbers WHERE `+where+` = $1`, arg,
	).Scan(&f.ID, &f.Nickname, &f.Number, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *fixedNumberRepository) GetByID(ctx context.Context, id string) (*domain.FixedNumber, error) {
	return r.getOne(ctx, "id", id)
}

func (r *fixedNumberRepository) GetByNickname(ctx context.Context, nickname string) (*domain.FixedNumber, error) {
	return r.getOne(ctx, "nickname", nickname)
}

func (r *fixedNumberRepository) GetByNumber(ctx context.Context, number int) (*domain.FixedNumber, error) {
	return r.getOne(ctx, "number", number)
}

func (r *fixedNumberRepository) List(ctx context.Context) ([]*domain.FixedNumber, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, nickname, number, created_at FROM fixed_numbers ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*domain.FixedNumber
	for rows.Next() {
		f := &domain.FixedNumber{}
		if err := rows.Scan(&f.ID, &f.Nickname, &f.Number, &f.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

func (r *fixedNumberRepository) ListNumbers(ctx context.Context) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT number FROM fixed_numbers`)
	if err != nil {
		return nil, err
	}
	return scanInts(rows)
}

func (r *fixedNumberRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM fixed_numbers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
