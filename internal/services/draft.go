package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventregistry/internal/domain"

	"github.com/google/uuid"
)

type draftService struct {
	drafts         domain.DraftStore
	events         domain.EventRepository
	registrants    domain.RegistrantService
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewDraftService returns the step-by-step registration flow backed by drafts.
func NewDraftService(drafts domain.DraftStore, events domain.EventRepository, registrants domain.RegistrantService,
	logger *slog.Logger, timeout time.Duration,
) domain.DraftService {
	return &draftService{
		drafts:         drafts,
		events:         events,
		registrants:    registrants,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *draftService) Start(ctx context.Context, eventID, externalID, nickname string) (*domain.RegistrationDraft, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, domain.InvalidInputError("missing external_id")
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	d := &domain.RegistrationDraft{
		ID:         uuid.NewString(),
		EventID:    eventID,
		ExternalID: externalID,
		Nickname:   domain.NormalizeNickname(nickname),
		UpdatedAt:  s.now(),
	}
	d.Step = d.NextStep()
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

func (s *draftService) Advance(ctx context.Context, id string, patch domain.DraftPatch) (*domain.RegistrationDraft, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.DisplayName != nil {
		d.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Phone != nil {
		d.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Transport != nil {
		t := strings.ToLower(strings.TrimSpace(*patch.Transport))
		if t != "" && !domain.IsKnownTransport(t) {
			return nil, domain.InvalidInputError("unknown transport category %q", t)
		}
		d.Transport = t
	}
	if patch.TransportModel != nil {
		d.TransportModel = trimOptional(patch.TransportModel)
	}
	d.Step = d.NextStep()
	d.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

// Submit registers a completed draft and deletes it. Incomplete drafts are rejected.
func (s *draftService) Submit(ctx context.Context, id string) (*domain.Registrant, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if step := d.NextStep(); step != domain.DraftStepConfirm {
		return nil, false, domain.InvalidInputError("draft is incomplete, next step is %s", step)
	}
	reg, created, err := s.registrants.Register(ctx, d.EventID, d.Input())
	if err != nil {
		return nil, false, err
	}
	// The registration is committed; a leftover draft only lingers until its TTL.
	if err := s.drafts.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "draft not deleted after submit", "draft_id", id, "registrant_id", reg.ID, "err", err)
	}
	return reg, created, nil
}

func (s *draftService) Cancel(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.drafts.Delete(ctx, id)
}
