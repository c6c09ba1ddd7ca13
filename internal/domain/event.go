package domain

import (
	"context"
	"time"
)

// Numbering bounds.
const (
	// DefaultMaxNumber is the upper bound of dynamically assigned numbers when an event does not set one.
	DefaultMaxNumber = 99
	// MaxFixedNumber is the upper bound of globally fixed numbers.
	MaxFixedNumber = 999
)

// Transport categories a registrant may pick. An event may restrict the list.
const (
	TransportCar     = "car"
	TransportMoto    = "moto"
	TransportBicycle = "bicycle"
	TransportScooter = "scooter"
	TransportOther   = "other"
)

// TransportCategories lists every known transport category in display order.
var TransportCategories = []string{TransportCar, TransportMoto, TransportBicycle, TransportScooter, TransportOther}

// IsKnownTransport reports whether c is one of TransportCategories.
func IsKnownTransport(c string) bool {
	for _, k := range TransportCategories {
		if k == c {
			return true
		}
	}
	return false
}

// Event is a scope for participant numbers: dynamic numbers and reserved numbers are per event.
// swagger:model Event
type Event struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         *string    `json:"description,omitempty"`
	Date                *time.Time `json:"date,omitempty"`
	MaxNumber           int        `json:"max_number"`
	TransportCategories []string   `json:"transport_categories"`
	ChatID              *string    `json:"chat_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(name string, maxNumber int, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Name:                name,
		MaxNumber:           maxNumber,
		TransportCategories: []string{},
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}
}

// AllowsTransport reports whether registrants of this event may pick category c.
// An empty category list allows every known category.
func (e *Event) AllowsTransport(c string) bool {
	if !IsKnownTransport(c) {
		return false
	}
	if len(e.TransportCategories) == 0 {
		return true
	}
	for _, k := range e.TransportCategories {
		if k == c {
			return true
		}
	}
	return false
}

// EventPatch holds optional event fields for a partial update. Nil means unchanged.
type EventPatch struct {
	Name                *string
	Description         *string
	Date                *time.Time
	MaxNumber           *int
	TransportCategories []string
	ChatID              *string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
	// Lock takes a row lock on the event for the rest of the transaction and returns it.
	// Every allocation in that event serializes behind this lock.
	Lock(ctx context.Context, id string) (*Event, error)
	// LockAll locks every event row in id order. Used by operations that touch numbers
	// in more than one event.
	LockAll(ctx context.Context) ([]*Event, error)
}

// EventService defines the business logic for managing events.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	UpdateEvent(ctx context.Context, id string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
