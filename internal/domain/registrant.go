package domain

import (
	"context"
	"strings"
	"time"
)

// Registrant is one person's registration for one event.
// swagger:model Registrant
type Registrant struct {
	ID                string    `json:"id"`
	EventID           string    `json:"event_id"`
	ExternalID        string    `json:"external_id"`
	Nickname          string    `json:"nickname"`
	DisplayName       string    `json:"display_name"`
	Phone             string    `json:"phone"`
	Transport         string    `json:"transport"`
	TransportModel    *string   `json:"transport_model,omitempty"`
	ParticipantNumber *int      `json:"participant_number"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HasNumber reports whether the registrant currently holds n.
func (r *Registrant) HasNumber(n int) bool {
	return r.ParticipantNumber != nil && *r.ParticipantNumber == n
}

// NormalizeNickname trims whitespace and a leading "@" and lower-cases the rest,
// so "@Dave" and "dave" address the same fixed binding.
func NormalizeNickname(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(strings.TrimSpace(s))
}

// RegistrantInput is what a registration front-end submits.
type RegistrantInput struct {
	ExternalID     string
	Nickname       string
	DisplayName    string
	Phone          string
	Transport      string
	TransportModel *string
}

// RegistrantPatch holds optional registrant fields for a partial update. Nil means unchanged.
type RegistrantPatch struct {
	Nickname       *string
	DisplayName    *string
	Phone          *string
	Transport      *string
	TransportModel *string
	IsActive       *bool
}

// RegistrantFilter narrows registrant listings.
type RegistrantFilter struct {
	IncludeInactive bool
}

// RegistrantRepository defines storage operations for registrants.
type RegistrantRepository interface {
	Create(ctx context.Context, r *Registrant) error
	GetByID(ctx context.Context, id string) (*Registrant, error)
	GetByEventAndExternalID(ctx context.Context, eventID, externalID string) (*Registrant, error)
	ListByEvent(ctx context.Context, eventID string, filter RegistrantFilter, params PaginationParams) ([]*Registrant, int, error)
	// Update writes profile fields, the participant number, and the active flag.
	Update(ctx context.Context, r *Registrant) error
	SetNumber(ctx context.Context, id string, number int) error
	Delete(ctx context.Context, id string) error

	// ListActiveNumbers returns the numbers held by active registrants of the event.
	ListActiveNumbers(ctx context.Context, eventID string) ([]int, error)
	// GetActiveByNumber returns the active registrant of the event holding number, or ErrNotFound.
	GetActiveByNumber(ctx context.Context, eventID string, number int) (*Registrant, error)
	// ListActiveHoldingNumber returns active registrants in any event holding number whose
	// nickname differs from exceptNickname.
	ListActiveHoldingNumber(ctx context.Context, number int, exceptNickname string) ([]*Registrant, error)
	// ListActiveByNickname returns active registrants with the nickname across all events.
	ListActiveByNickname(ctx context.Context, nickname string) ([]*Registrant, error)
	// ListNumberConflicts reports latent conflicts for the audit job.
	ListNumberConflicts(ctx context.Context) ([]*NumberConflict, error)
}

// RegistrantService is the registration lifecycle: the only writer of participant numbers
// besides FixedNumberService.
type RegistrantService interface {
	// Register creates a registration and assigns its number. Returns (reg, created, err):
	// created is false when an active registration for the external id already exists.
	Register(ctx context.Context, eventID string, in RegistrantInput) (*Registrant, bool, error)
	Update(ctx context.Context, id string, patch RegistrantPatch) (*Registrant, error)
	Deactivate(ctx context.Context, id string) (*Registrant, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Registrant, error)
	ListByEvent(ctx context.Context, eventID string, filter RegistrantFilter, params PaginationParams) ([]*Registrant, int, error)
}
