package domain

import (
	"context"
	"time"
)

// FixedNumber pins a nickname to one participant number in every event.
// swagger:model FixedNumber
type FixedNumber struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Number    int       `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

// Eviction records a registrant moved off a number so a fixed binding could take it.
// swagger:model Eviction
type Eviction struct {
	RegistrantID string `json:"registrant_id"`
	EventID      string `json:"event_id"`
	EventName    string `json:"event_name"`
	DisplayName  string `json:"display_name"`
	Nickname     string `json:"nickname"`
	FromNumber   int    `json:"from_number"`
	ToNumber     int    `json:"to_number"`
}

// Reassignment records a registrant moved onto its fixed number.
// swagger:model Reassignment
type Reassignment struct {
	RegistrantID string `json:"registrant_id"`
	EventID      string `json:"event_id"`
	EventName    string `json:"event_name"`
	DisplayName  string `json:"display_name"`
	FromNumber   *int   `json:"from_number"`
	ToNumber     int    `json:"to_number"`
}

// BindingOutcome is the result of creating (or previewing) a fixed binding.
// swagger:model BindingOutcome
type BindingOutcome struct {
	Binding       *FixedNumber    `json:"binding"`
	Evictions     []*Eviction     `json:"evictions"`
	Reassignments []*Reassignment `json:"reassignments"`
}

// Kinds of NumberConflict.
const (
	ConflictDuplicate = "duplicate"
	ConflictReserved  = "reserved"
	ConflictFixed     = "fixed"
)

// NumberConflict is a latent inconsistency found by the audit job.
type NumberConflict struct {
	Kind         string
	EventID      string
	RegistrantID string
	Number       int
}

// ReservedNumberRepository defines storage for per-event reserved numbers.
type ReservedNumberRepository interface {
	ListByEvent(ctx context.Context, eventID string) ([]int, error)
	Add(ctx context.Context, eventID string, numbers []int) error
	Remove(ctx context.Context, eventID string, numbers []int) error
}

// FixedNumberRepository defines storage for global fixed bindings.
type FixedNumberRepository interface {
	Create(ctx context.Context, f *FixedNumber) error
	GetByID(ctx context.Context, id string) (*FixedNumber, error)
	GetByNickname(ctx context.Context, nickname string) (*FixedNumber, error)
	GetByNumber(ctx context.Context, number int) (*FixedNumber, error)
	List(ctx context.Context) ([]*FixedNumber, error)
	ListNumbers(ctx context.Context) ([]int, error)
	Delete(ctx context.Context, id string) error
}

// ReservedNumberService manages numbers an administrator keeps out of automatic assignment.
type ReservedNumberService interface {
	Add(ctx context.Context, eventID string, numbers []int) ([]int, error)
	Remove(ctx context.Context, eventID string, numbers []int) ([]int, error)
	List(ctx context.Context, eventID string) ([]int, error)
}

// FixedNumberService manages global nickname-to-number bindings.
type FixedNumberService interface {
	Create(ctx context.Context, nickname string, number int) (*BindingOutcome, error)
	// Preview reports what Create would do without committing anything.
	Preview(ctx context.Context, nickname string, number int) (*BindingOutcome, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*FixedNumber, error)
	LookupByNickname(ctx context.Context, nickname string) (*FixedNumber, error)
	LookupByNumber(ctx context.Context, number int) (*FixedNumber, error)
}

// NumberPoolService answers read-only questions about an event's pool.
type NumberPoolService interface {
	NextAvailable(ctx context.Context, eventID string) (int, error)
}

// Store groups the repositories that take part in one allocation.
type Store interface {
	Events() EventRepository
	Registrants() RegistrantRepository
	ReservedNumbers() ReservedNumberRepository
	FixedNumbers() FixedNumberRepository
}

// TxManager runs fn against a Store bound to a single transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
