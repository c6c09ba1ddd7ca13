package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventregistry/internal/domain"
)

type store struct {
	events      domain.EventRepository
	registrants domain.RegistrantRepository
	reserved    domain.ReservedNumberRepository
	fixed       domain.FixedNumberRepository
}

// NewStore returns a Store whose repositories all run on q.
func NewStore(q Querier) domain.Store {
	return &store{
		events:      NewEventRepository(q),
		registrants: NewRegistrantRepository(q),
		reserved:    NewReservedNumberRepository(q),
		fixed:       NewFixedNumberRepository(q),
	}
}

func (s *store) Events() domain.EventRepository                   { return s.events }
func (s *store) Registrants() domain.RegistrantRepository         { return s.registrants }
func (s *store) ReservedNumbers() domain.ReservedNumberRepository { return s.reserved }
func (s *store) FixedNumbers() domain.FixedNumberRepository       { return s.fixed }

// TxManager runs allocation work inside one database transaction.
type TxManager struct {
	DB *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{DB: db}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, s domain.Store) error) error {
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, NewStore(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapRegistrantWriteError(fmt.Errorf("commit: %w", err))
	}
	return nil
}
