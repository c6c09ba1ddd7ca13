package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventregistry/internal/domain"
	"eventregistry/internal/metrics"
)

// lowestFree returns the smallest integer in 1..max that is not in used.
func lowestFree(used map[int]struct{}, max int) (int, error) {
	for n := 1; n <= max; n++ {
		if _, taken := used[n]; !taken {
			return n, nil
		}
	}
	return 0, domain.ErrAllocationExhausted
}

// usedNumbers is the set a dynamic pick must avoid in one event: numbers held by active
// registrants of the event, the event's reserved numbers, and every fixed number.
func usedNumbers(ctx context.Context, st domain.Store, eventID string) (map[int]struct{}, error) {
	active, err := st.Registrants().ListActiveNumbers(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list active numbers: %w", err)
	}
	reserved, err := st.ReservedNumbers().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list reserved numbers: %w", err)
	}
	fixed, err := st.FixedNumbers().ListNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fixed numbers: %w", err)
	}
	used := make(map[int]struct{}, len(active)+len(reserved)+len(fixed))
	for _, group := range [][]int{active, reserved, fixed} {
		for _, n := range group {
			used[n] = struct{}{}
		}
	}
	return used, nil
}

func nextAvailable(ctx context.Context, st domain.Store, event *domain.Event) (int, error) {
	used, err := usedNumbers(ctx, st, event.ID)
	if err != nil {
		return 0, err
	}
	return lowestFree(used, event.MaxNumber)
}

// clearSeat moves the active holder of number in event to the lowest free number, unless
// the holder is vacatingFor. It returns nil when nobody else holds the number.
func clearSeat(ctx context.Context, st domain.Store, event *domain.Event, number int, vacatingFor string) (*domain.Eviction, error) {
	holder, err := st.Registrants().GetActiveByNumber(ctx, event.ID, number)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find holder of %d: %w", number, err)
	}
	if vacatingFor != "" && holder.ID == vacatingFor {
		return nil, nil
	}

	used, err := usedNumbers(ctx, st, event.ID)
	if err != nil {
		return nil, err
	}
	used[number] = struct{}{}
	to, err := lowestFree(used, event.MaxNumber)
	if err != nil {
		return nil, fmt.Errorf("evict %q from %d in %q: %w", holder.DisplayName, number, event.Name, err)
	}
	if err := st.Registrants().SetNumber(ctx, holder.ID, to); err != nil {
		return nil, fmt.Errorf("move evicted registrant: %w", err)
	}
	return &domain.Eviction{
		RegistrantID: holder.ID,
		EventID:      event.ID,
		EventName:    event.Name,
		DisplayName:  holder.DisplayName,
		Nickname:     holder.Nickname,
		FromNumber:   number,
		ToNumber:     to,
	}, nil
}

// numberIsFree reports whether reg could keep n: nobody else active holds it, it is not
// reserved, and it is not fixed to another nickname.
func numberIsFree(ctx context.Context, st domain.Store, event *domain.Event, reg *domain.Registrant, n int) (bool, error) {
	holder, err := st.Registrants().GetActiveByNumber(ctx, event.ID, n)
	switch {
	case err == nil && holder.ID != reg.ID:
		return false, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return false, fmt.Errorf("find holder of %d: %w", n, err)
	}

	reserved, err := st.ReservedNumbers().ListByEvent(ctx, event.ID)
	if err != nil {
		return false, fmt.Errorf("list reserved numbers: %w", err)
	}
	for _, r := range reserved {
		if r == n {
			return false, nil
		}
	}

	binding, err := st.FixedNumbers().GetByNumber(ctx, n)
	switch {
	case err == nil:
		return binding.Nickname == reg.Nickname, nil
	case errors.Is(err, domain.ErrNotFound):
		return true, nil
	default:
		return false, fmt.Errorf("lookup fixed number %d: %w", n, err)
	}
}

// keepPolicy says what happens to a registrant's current number when no fixed binding applies.
type keepPolicy int

const (
	// keepAlways leaves an existing number untouched.
	keepAlways keepPolicy = iota
	// keepIfFree keeps the existing number only if numberIsFree.
	keepIfFree
	// pickDynamic always takes the next available number.
	pickDynamic
)

// resolution is the single decision of which number a registrant ends up with.
type resolution struct {
	strategy string
	number   int
	eviction *domain.Eviction
}

// resolve decides reg's number in event. A fixed binding for reg's nickname always wins and
// clears the seat first; otherwise policy applies. Seat-clearing writes happen here, the
// caller writes reg itself.
func resolve(ctx context.Context, st domain.Store, event *domain.Event, reg *domain.Registrant, policy keepPolicy) (resolution, error) {
	if reg.Nickname != "" {
		binding, err := st.FixedNumbers().GetByNickname(ctx, reg.Nickname)
		switch {
		case err == nil:
			ev, err := clearSeat(ctx, st, event, binding.Number, reg.ID)
			if err != nil {
				return resolution{}, err
			}
			return resolution{strategy: metrics.StrategyFixed, number: binding.Number, eviction: ev}, nil
		case !errors.Is(err, domain.ErrNotFound):
			return resolution{}, fmt.Errorf("lookup fixed number: %w", err)
		}
	}

	if reg.ParticipantNumber != nil {
		switch policy {
		case keepAlways:
			return resolution{strategy: metrics.StrategyKeep, number: *reg.ParticipantNumber}, nil
		case keepIfFree:
			free, err := numberIsFree(ctx, st, event, reg, *reg.ParticipantNumber)
			if err != nil {
				return resolution{}, err
			}
			if free {
				return resolution{strategy: metrics.StrategyKeep, number: *reg.ParticipantNumber}, nil
			}
		}
	}

	n, err := nextAvailable(ctx, st, event)
	if err != nil {
		return resolution{}, err
	}
	return resolution{strategy: metrics.StrategyDynamic, number: n}, nil
}

func (r resolution) apply(reg *domain.Registrant) {
	n := r.number
	reg.ParticipantNumber = &n
}

// record reports a committed resolution to metrics.
func (r *resolution) record(m *metrics.Metrics) {
	if r == nil || r.strategy == "" {
		return
	}
	m.IncrementAssigned(r.strategy)
	if r.eviction != nil {
		m.AddEvictions(1)
	}
}

const maxAllocationAttempts = 3

// withRetry reruns fn while it fails with ErrNumberConflict, the store's signal that a
// concurrent transaction committed the same number first.
func withRetry(ctx context.Context, m *metrics.Metrics, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrNumberConflict) {
			break
		}
		if attempt < maxAllocationAttempts {
			m.IncrementRetries()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
			}
		}
	}
	if errors.Is(err, domain.ErrAllocationExhausted) {
		m.IncrementExhausted()
	}
	return err
}

type numberPoolService struct {
	tx             domain.TxManager
	contextTimeout time.Duration
}

// NewNumberPoolService returns the read-only pool query used by the dashboard.
func NewNumberPoolService(tx domain.TxManager, timeout time.Duration) domain.NumberPoolService {
	return &numberPoolService{tx: tx, contextTimeout: timeout}
}

func (s *numberPoolService) NextAvailable(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var n int
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		event, err := st.Events().Lock(ctx, eventID)
		if err != nil {
			return err
		}
		n, err = nextAvailable(ctx, st, event)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
