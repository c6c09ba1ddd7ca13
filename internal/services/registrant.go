package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventregistry/internal/domain"
	"eventregistry/internal/metrics"
)

type registrantService struct {
	tx             domain.TxManager
	store          domain.Store
	metrics        *metrics.Metrics
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewRegistrantService returns the registration lifecycle. Writes run through tx; reads use store.
func NewRegistrantService(tx domain.TxManager, store domain.Store, m *metrics.Metrics, logger *slog.Logger, timeout time.Duration) domain.RegistrantService {
	return &registrantService{
		tx:             tx,
		store:          store,
		metrics:        m,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func normalizeInput(in domain.RegistrantInput) (domain.RegistrantInput, error) {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Nickname = domain.NormalizeNickname(in.Nickname)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Transport = strings.ToLower(strings.TrimSpace(in.Transport))
	in.TransportModel = trimOptional(in.TransportModel)

	var missing []string
	if in.ExternalID == "" {
		missing = append(missing, "external_id")
	}
	if in.DisplayName == "" {
		missing = append(missing, "display_name")
	}
	if in.Transport == "" {
		missing = append(missing, "transport")
	}
	if len(missing) > 0 {
		return in, domain.InvalidInputError("missing %s", strings.Join(missing, ", "))
	}
	return in, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func checkTransport(event *domain.Event, transport string) error {
	if !event.AllowsTransport(transport) {
		return domain.InvalidInputError("transport %q is not offered for %s", transport, event.Name)
	}
	return nil
}

func (s *registrantService) Register(ctx context.Context, eventID string, in domain.RegistrantInput) (*domain.Registrant, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	in, err := normalizeInput(in)
	if err != nil {
		return nil, false, err
	}

	var (
		out     *domain.Registrant
		created bool
		res     *resolution
	)
	err = withRetry(ctx, s.metrics, func() error {
		out, created, res = nil, false, nil
		return s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
			event, err := st.Events().Lock(ctx, eventID)
			if err != nil {
				return err
			}

			existing, err := st.Registrants().GetByEventAndExternalID(ctx, eventID, in.ExternalID)
			switch {
			case err == nil && existing.IsActive:
				out = existing
				return nil
			case err == nil:
				if err := checkTransport(event, in.Transport); err != nil {
					return err
				}
				applyInput(existing, in)
				if err := checkNicknameFree(ctx, st, existing); err != nil {
					return err
				}
				r, err := s.reactivate(ctx, st, event, existing)
				if err != nil {
					return err
				}
				out, created, res = existing, true, r
				return nil
			case !errors.Is(err, domain.ErrNotFound):
				return fmt.Errorf("get registrant: %w", err)
			}

			if err := checkTransport(event, in.Transport); err != nil {
				return err
			}
			now := s.now()
			reg := &domain.Registrant{EventID: eventID, IsActive: true, CreatedAt: now, UpdatedAt: now}
			applyInput(reg, in)
			if err := checkNicknameFree(ctx, st, reg); err != nil {
				return err
			}
			r, err := resolve(ctx, st, event, reg, pickDynamic)
			if err != nil {
				return err
			}
			r.apply(reg)
			if err := st.Registrants().Create(ctx, reg); err != nil {
				return fmt.Errorf("create registrant: %w", err)
			}
			out, created, res = reg, true, &r
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	res.record(s.metrics)
	s.logResolution(ctx, out, res)
	return out, created, nil
}

// checkNicknameFree rejects reg when another active registrant of its event uses the same
// nickname. Registrants without a nickname never clash.
func checkNicknameFree(ctx context.Context, st domain.Store, reg *domain.Registrant) error {
	if reg.Nickname == "" {
		return nil
	}
	others, err := st.Registrants().ListActiveByNickname(ctx, reg.Nickname)
	if err != nil {
		return fmt.Errorf("list registrants of @%s: %w", reg.Nickname, err)
	}
	for _, o := range others {
		if o.EventID == reg.EventID && o.ID != reg.ID {
			return fmt.Errorf("%w: @%s", domain.ErrDuplicateNickname, reg.Nickname)
		}
	}
	return nil
}

func applyInput(reg *domain.Registrant, in domain.RegistrantInput) {
	reg.ExternalID = in.ExternalID
	reg.Nickname = in.Nickname
	reg.DisplayName = in.DisplayName
	reg.Phone = in.Phone
	reg.Transport = in.Transport
	reg.TransportModel = in.TransportModel
}

// reactivate marks reg active and re-resolves its number, then writes it.
func (s *registrantService) reactivate(ctx context.Context, st domain.Store, event *domain.Event, reg *domain.Registrant) (*resolution, error) {
	r, err := resolve(ctx, st, event, reg, keepIfFree)
	if err != nil {
		return nil, err
	}
	r.apply(reg)
	reg.IsActive = true
	reg.UpdatedAt = s.now()
	if err := st.Registrants().Update(ctx, reg); err != nil {
		return nil, fmt.Errorf("update registrant: %w", err)
	}
	return &r, nil
}

func (s *registrantService) Update(ctx context.Context, id string, patch domain.RegistrantPatch) (*domain.Registrant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var (
		out *domain.Registrant
		res *resolution
	)
	err := withRetry(ctx, s.metrics, func() error {
		out, res = nil, nil
		return s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
			reg, err := st.Registrants().GetByID(ctx, id)
			if err != nil {
				return err
			}
			event, err := st.Events().Lock(ctx, reg.EventID)
			if err != nil {
				return err
			}
			// Re-read under the event lock.
			reg, err = st.Registrants().GetByID(ctx, id)
			if err != nil {
				return err
			}

			wasActive, oldNickname := reg.IsActive, reg.Nickname
			if err := applyPatch(event, reg, patch); err != nil {
				return err
			}
			if reg.IsActive && (!wasActive || reg.Nickname != oldNickname) {
				if err := checkNicknameFree(ctx, st, reg); err != nil {
					return err
				}
			}

			switch {
			case !wasActive && reg.IsActive:
				r, err := resolve(ctx, st, event, reg, keepIfFree)
				if err != nil {
					return err
				}
				r.apply(reg)
				res = &r
			case reg.IsActive && (reg.Nickname != oldNickname || reg.ParticipantNumber == nil):
				r, err := resolve(ctx, st, event, reg, keepAlways)
				if err != nil {
					return err
				}
				r.apply(reg)
				res = &r
			}

			reg.UpdatedAt = s.now()
			if err := st.Registrants().Update(ctx, reg); err != nil {
				return fmt.Errorf("update registrant: %w", err)
			}
			out = reg
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	res.record(s.metrics)
	s.logResolution(ctx, out, res)
	return out, nil
}

func applyPatch(event *domain.Event, reg *domain.Registrant, p domain.RegistrantPatch) error {
	if p.Nickname != nil {
		reg.Nickname = domain.NormalizeNickname(*p.Nickname)
	}
	if p.DisplayName != nil {
		name := strings.TrimSpace(*p.DisplayName)
		if name == "" {
			return domain.InvalidInputError("display_name cannot be empty")
		}
		reg.DisplayName = name
	}
	if p.Phone != nil {
		reg.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Transport != nil {
		t := strings.ToLower(strings.TrimSpace(*p.Transport))
		if err := checkTransport(event, t); err != nil {
			return err
		}
		reg.Transport = t
	}
	if p.TransportModel != nil {
		reg.TransportModel = trimOptional(p.TransportModel)
	}
	if p.IsActive != nil {
		reg.IsActive = *p.IsActive
	}
	return nil
}

// Deactivate is the soft delete: the number stays on the record but stops counting as used.
func (s *registrantService) Deactivate(ctx context.Context, id string) (*domain.Registrant, error) {
	inactive := false
	return s.Update(ctx, id, domain.RegistrantPatch{IsActive: &inactive})
}

func (s *registrantService) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.store.Registrants().Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete registrant: %w", err)
	}
	return nil
}

func (s *registrantService) Get(ctx context.Context, id string) (*domain.Registrant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.store.Registrants().GetByID(ctx, id)
}

func (s *registrantService) ListByEvent(ctx context.Context, eventID string, filter domain.RegistrantFilter, params domain.PaginationParams) ([]*domain.Registrant, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.store.Events().GetByID(ctx, eventID); err != nil {
		return nil, 0, err
	}
	list, total, err := s.store.Registrants().ListByEvent(ctx, eventID, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list registrants: %w", err)
	}
	if list == nil {
		list = []*domain.Registrant{}
	}
	return list, total, nil
}

func (s *registrantService) logResolution(ctx context.Context, reg *domain.Registrant, res *resolution) {
	if res == nil || reg == nil || s.logger == nil {
		return
	}
	s.logger.InfoContext(ctx, "participant number resolved",
		"registrant_id", reg.ID, "event_id", reg.EventID, "strategy", res.strategy, "number", res.number)
	if ev := res.eviction; ev != nil {
		s.logger.InfoContext(ctx, "registrant evicted",
			"registrant_id", ev.RegistrantID, "event_id", ev.EventID, "from", ev.FromNumber, "to", ev.ToNumber)
	}
}
