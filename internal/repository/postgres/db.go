package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// Constraint and index names from schema.sql that map to domain errors.
const (
	constraintAdminEmail          = "admins_email_key"
	constraintRegistrantExternal  = "registrants_event_external_key"
	constraintRegistrantNumber    = "registrants_active_number_key"
	constraintRegistrantNickname  = "registrants_event_nickname_key"
	constraintFixedNumberNickname = "fixed_numbers_nickname_key"
	constraintFixedNumberNumber   = "fixed_numbers_number_key"
)

const uniqueViolation = "23505"

// Querier is the subset of *sql.DB and *sql.Tx the repositories need, so one repository
// implementation serves both plain reads and transactional allocation.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to Postgres with lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// uniqueConstraint returns the violated constraint name when err is a unique violation.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

type scanner interface {
	Scan(dest ...any) error
}

func intPtrArg(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func limitArg(p interface{ Limit() int }) any {
	if p.Limit() == 0 {
		return nil
	}
	return p.Limit()
}

func toInt64s(numbers []int) pq.Int64Array {
	out := make(pq.Int64Array, len(numbers))
	for i, n := range numbers {
		out[i] = int64(n)
	}
	return out
}
