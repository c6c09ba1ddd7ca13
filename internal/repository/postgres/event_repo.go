package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventregistry/internal/domain"

	"github.com/lib/pq"
)

const eventColumns = `id, name, description, date, max_number, transport_categories, chat_id, created_at, updated_at`

type eventRepository struct {
	DB Querier
}

func NewEventRepository(db Querier) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row scanner) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull, chatNull sql.NullString
	var dateNull sql.NullTime
	var categories pq.StringArray
	err := row.Scan(
		&e.ID, &e.Name, &descNull, &dateNull, &e.MaxNumber, &categories, &chatNull, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if dateNull.Valid {
		e.Date = &dateNull.Time
	}
	if chatNull.Valid {
		e.ChatID = &chatNull.String
	}
	e.TransportCategories = []string(categories)
	if e.TransportCategories == nil {
		e.TransportCategories = []string{}
	}
	return e, nil
}

func categoriesArg(c []string) pq.StringArray {
	if c == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(c)
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (name, description, date, max_number, transport_categories, chat_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Name, e.Description, e.Date, e.MaxNumber, categoriesArg(e.TransportCategories), e.ChatID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY date DESC NULLS LAST, created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, limitArg(params), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, date = $3, max_number = $4, transport_categories = $5, chat_id = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := r.DB.ExecContext(ctx, query,
		e.Name, e.Description, e.Date, e.MaxNumber, categoriesArg(e.TransportCategories), e.ChatID, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *eventRepository) Lock(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}
	return e, nil
}

func (r *eventRepository) LockAll(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY id FOR UPDATE`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("lock events: %w", err)
	}
	defer rows.Close()
	var list []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
