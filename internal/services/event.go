package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventregistry/internal/domain"
)

type eventService struct {
	eventRepo        domain.EventRepository
	defaultMaxNumber int
	contextTimeout   time.Duration
}

func NewEventService(eventRepo domain.EventRepository, defaultMaxNumber int, timeout time.Duration) domain.EventService {
	if defaultMaxNumber < 1 || defaultMaxNumber > domain.MaxFixedNumber {
		defaultMaxNumber = domain.DefaultMaxNumber
	}
	return &eventService{
		eventRepo:        eventRepo,
		defaultMaxNumber: defaultMaxNumber,
		contextTimeout:   timeout,
	}
}

func validateMaxNumber(n int) error {
	if n < 1 || n > domain.MaxFixedNumber {
		return domain.InvalidInputError("max_number must be between 1 and %d", domain.MaxFixedNumber)
	}
	return nil
}

// normalizeCategories lower-cases and dedupes categories, rejecting unknown ones.
func normalizeCategories(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if !domain.IsKnownTransport(c) {
			return nil, domain.InvalidInputError("unknown transport category %q", c)
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.Name = strings.TrimSpace(event.Name)
	if event.Name == "" {
		return domain.InvalidInputError("event name is required")
	}
	if event.MaxNumber == 0 {
		event.MaxNumber = s.defaultMaxNumber
	}
	if err := validateMaxNumber(event.MaxNumber); err != nil {
		return err
	}
	categories, err := normalizeCategories(event.TransportCategories)
	if err != nil {
		return err
	}
	event.TransportCategories = categories
	event.ChatID = trimOptional(event.ChatID)

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	list, total, err := s.eventRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if list == nil {
		list = []*domain.Event{}
	}
	return list, total, nil
}

// UpdateEvent applies patch. Lowering MaxNumber leaves seated registrants where they are.
func (s *eventService) UpdateEvent(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.InvalidInputError("event name cannot be empty")
		}
		event.Name = name
	}
	if patch.Description != nil {
		event.Description = patch.Description
	}
	if patch.Date != nil {
		event.Date = patch.Date
	}
	if patch.MaxNumber != nil {
		if err := validateMaxNumber(*patch.MaxNumber); err != nil {
			return nil, err
		}
		event.MaxNumber = *patch.MaxNumber
	}
	if patch.TransportCategories != nil {
		categories, err := normalizeCategories(patch.TransportCategories)
		if err != nil {
			return nil, err
		}
		event.TransportCategories = categories
	}
	if patch.ChatID != nil {
		event.ChatID = trimOptional(patch.ChatID)
	}
	event.UpdatedAt = time.Now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
