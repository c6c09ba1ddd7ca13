package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventregistry/internal/domain"
)

const registrantColumns = `id, event_id, external_id, nickname, display_name, phone, transport, transport_model, participant_number, is_active, created_at, updated_at`

type registrantRepository struct {
	DB Querier
}

func NewRegistrantRepository(db Querier) domain.RegistrantRepository {
	return &registrantRepository{
		DB: db,
	}
}

func scanRegistrant(row scanner) (*domain.Registrant, error) {
	reg := &domain.Registrant{}
	var modelNull sql.NullString
	var numberNull sql.NullInt64
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.ExternalID, &reg.Nickname, &reg.DisplayName, &reg.Phone,
		&reg.Transport, &modelNull, &numberNull, &reg.IsActive, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if modelNull.Valid {
		reg.TransportModel = &modelNull.String
	}
	if numberNull.Valid {
		n := int(numberNull.Int64)
		reg.ParticipantNumber = &n
	}
	return reg, nil
}

func (r *registrantRepository) scanAll(rows *sql.Rows) ([]*domain.Registrant, error) {
	defer rows.Close()
	var list []*domain.Registrant
	for rows.Next() {
		reg, err := scanRegistrant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// mapWriteError turns unique violations on the registrants table into domain errors.
func mapRegistrantWriteError(err error) error {
	switch c, ok := uniqueConstraint(err); {
	case !ok:
		return err
	case c == constraintRegistrantExternal:
		return domain.ErrAlreadyRegistered
	case c == constraintRegistrantNumber:
		return domain.ErrNumberConflict
	case c == constraintRegistrantNickname:
		return domain.ErrDuplicateNickname
	default:
		return err
	}
}

func (r *registrantRepository) Create(ctx context.Context, reg *domain.Registrant) error {
	query := `
		INSERT INTO registrants (event_id, external_id, nickname, display_name, phone, transport, transport_model, participant_number, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		reg.EventID, reg.ExternalID, reg.Nickname, reg.DisplayName, reg.Phone, reg.Transport,
		reg.TransportModel, intPtrArg(reg.ParticipantNumber), reg.IsActive, reg.CreatedAt, reg.UpdatedAt,
	).Scan(&reg.ID)
	if err != nil {
		return mapRegistrantWriteError(err)
	}
	return nil
}

func (r *registrantRepository) GetByID(ctx context.Context, id string) (*domain.Registrant, error) {
	query := `SELECT ` + registrantColumns + ` FROM registrants WHERE id = $1`
	reg, err := scanRegistrant(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrantRepository) GetByEventAndExternalID(ctx context.Context, eventID, externalID string) (*domain.Registrant, error) {
	query := `SELECT ` + registrantColumns + ` FROM registrants WHERE event_id = $1 AND external_id = $2`
	reg, err := scanRegistrant(r.DB.QueryRowContext(ctx, query, eventID, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrantRepository) ListByEvent(ctx context.Context, eventID string, filter domain.RegistrantFilter, params domain.PaginationParams) ([]*domain.Registrant, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM registrants WHERE event_id = $1 AND ($2 OR is_active)`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID, filter.IncludeInactive).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count registrants: %w", err)
	}
	query := `
		SELECT ` + registrantColumns + `
		FROM registrants
		WHERE event_id = $1 AND ($2 OR is_active)
		ORDER BY participant_number NULLS LAST, created_at
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, filter.IncludeInactive, limitArg(params), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	list, err := r.scanAll(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *registrantRepository) Update(ctx context.Context, reg *domain.Registrant) error {
	query := `
		UPDATE registrants
		SET nickname = $1, display_name = $2, phone = $3, transport = $4, transport_model = $5,
		    participant_number = $6, is_active = $7, updated_at = $8
		WHERE id = $9
	`
	res, err := r.DB.ExecContext(ctx, query,
		reg.Nickname, reg.DisplayName, reg.Phone, reg.Transport, reg.TransportModel,
		intPtrArg(reg.ParticipantNumber), reg.IsActive, reg.UpdatedAt, reg.ID,
	)
	if err != nil {
		return mapRegistrantWriteError(err)
	}
	return requireAffected(res)
}

func (r *registrantRepository) SetNumber(ctx context.Context, id string, number int) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE registrants SET participant_number = $1, updated_at = NOW() WHERE id = $2`, number, id)
	if err != nil {
		return mapRegistrantWriteError(err)
	}
	return requireAffected(res)
}

func (r *registrantRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM registrants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *registrantRepository) ListActiveNumbers(ctx context.Context, eventID string) ([]int, error) {
	query := `
		SELECT participant_number
		FROM registrants
		WHERE event_id = $1 AND is_active AND participant_number IS NOT NULL
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return scanInts(rows)
}

func (r *registrantRepository) GetActiveByNumber(ctx context.Context, eventID string, number int) (*domain.Registrant, error) {
	query := `
		SELECT ` + registrantColumns + `
		FROM registrants
		WHERE event_id = $1 AND participant_number = $2 AND is_active
		LIMIT 1
	`
	reg, err := scanRegistrant(r.DB.QueryRowContext(ctx, query, eventID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrantRepository) ListActiveHoldingNumber(ctx context.Context, number int, exceptNickname string) ([]*domain.Registrant, error) {
	query := `
		SELECT ` + registrantColumns + `
		FROM registrants
		WHERE participant_number = $1 AND is_active AND nickname <> $2
		ORDER BY event_id, created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, number, exceptNickname)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *registrantRepository) ListActiveByNickname(ctx context.Context, nickname string) ([]*domain.Registrant, error) {
	query := `
		SELECT ` + registrantColumns + `
		FROM registrants
		WHERE nickname = $1 AND is_active
		ORDER BY event_id, created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, nickname)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *registrantRepository) ListNumberConflicts(ctx context.Context) ([]*domain.NumberConflict, error) {
	query := `
		SELECT 'duplicate', r.event_id, r.id, r.participant_number
		FROM registrants r
		JOIN registrants o
		  ON o.event_id = r.event_id AND o.participant_number = r.participant_number AND o.id <> r.id AND o.is_active
		WHERE r.is_active
		UNION ALL
		SELECT 'reserved', r.event_id, r.id, r.participant_number
		FROM registrants r
		JOIN reserved_numbers rn ON rn.event_id = r.event_id AND rn.number = r.participant_number
		WHERE r.is_active
		UNION ALL
		SELECT 'fixed', r.event_id, r.id, r.participant_number
		FROM registrants r
		JOIN fixed_numbers f ON f.number = r.participant_number AND f.nickname <> r.nickname
		WHERE r.is_active
		ORDER BY 2, 4
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*domain.NumberConflict
	for rows.Next() {
		c := &domain.NumberConflict{}
		if err := rows.Scan(&c.Kind, &c.EventID, &c.RegistrantID, &c.Number); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanInts(rows *sql.Rows) ([]int, error) {
	defer rows.Close()
	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
