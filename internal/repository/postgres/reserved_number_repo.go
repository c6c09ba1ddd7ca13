package postgres

import (
	"context"

	"eventregistry/internal/domain"
)

type reservedNumberRepository struct {
	DB Querier
}

func NewReservedNumberRepository(db Querier) domain.ReservedNumberRepository {
	return &reservedNumberRepository{DB: db}
}

func (r *reservedNumberRepository) ListByEvent(ctx context.Context, eventID string) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT number FROM reserved_numbers WHERE event_id = $1 ORDER BY number`, eventID)
	if err != nil {
		return nil, err
	}
	return scanInts(rows)
}

// Add inserts the numbers; numbers already reserved are left as they are.
func (r *reservedNumberRepository) Add(ctx context.Context, eventID string, numbers []int) error {
	if len(numbers) == 0 {
		return nil
	}
	query := `
		INSERT INTO reserved_numbers (event_id, number)
		SELECT $1, unnest($2::int[])
		ON CONFLICT (event_id, number) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, eventID, toInt64s(numbers))
	return err
}

func (r *reservedNumberRepository) Remove(ctx context.Context, eventID string, numbers []int) error {
	if len(numbers) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM reserved_numbers WHERE event_id = $1 AND number = ANY($2)`, eventID, toInt64s(numbers))
	return err
}
