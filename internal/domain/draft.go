package domain

import (
	"context"
	"time"
)

// Draft steps, in the order a front-end walks through them.
const (
	DraftStepName      = "name"
	DraftStepPhone     = "phone"
	DraftStepTransport = "transport"
	DraftStepConfirm   = "confirm"
)

// RegistrationDraft is an unfinished registration held between front-end turns.
// It expires after the store's TTL; nothing about it is committed to the registrant table.
// swagger:model RegistrationDraft
type RegistrationDraft struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	ExternalID     string    `json:"external_id"`
	Nickname       string    `json:"nickname"`
	DisplayName    string    `json:"display_name"`
	Phone          string    `json:"phone"`
	Transport      string    `json:"transport"`
	TransportModel *string   `json:"transport_model,omitempty"`
	Step           string    `json:"step"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NextStep returns the first step whose field is still empty.
func (d *RegistrationDraft) NextStep() string {
	switch {
	case d.DisplayName == "":
		return DraftStepName
	case d.Phone == "":
		return DraftStepPhone
	case d.Transport == "":
		return DraftStepTransport
	default:
		return DraftStepConfirm
	}
}

// Input converts a completed draft into registration input.
func (d *RegistrationDraft) Input() RegistrantInput {
	return RegistrantInput{
		ExternalID:     d.ExternalID,
		Nickname:       d.Nickname,
		DisplayName:    d.DisplayName,
		Phone:          d.Phone,
		Transport:      d.Transport,
		TransportModel: d.TransportModel,
	}
}

// DraftPatch holds the fields a front-end turn may fill in.
type DraftPatch struct {
	DisplayName    *string
	Phone          *string
	Transport      *string
	TransportModel *string
}

// DraftStore keeps drafts with an expiry. Get returns ErrNotFound for missing or expired drafts.
type DraftStore interface {
	Save(ctx context.Context, d *RegistrationDraft) error
	Get(ctx context.Context, id string) (*RegistrationDraft, error)
	Delete(ctx context.Context, id string) error
}

// DraftService drives a registration through its steps and submits it to RegistrantService.
type DraftService interface {
	Start(ctx context.Context, eventID, externalID, nickname string) (*RegistrationDraft, error)
	Advance(ctx context.Context, id string, patch DraftPatch) (*RegistrationDraft, error)
	Submit(ctx context.Context, id string) (*Registrant, bool, error)
	Cancel(ctx context.Context, id string) error
}
