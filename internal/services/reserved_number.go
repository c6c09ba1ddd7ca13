package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"eventregistry/internal/domain"
)

type reservedNumberService struct {
	tx             domain.TxManager
	store          domain.Store
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewReservedNumberService(tx domain.TxManager, store domain.Store, logger *slog.Logger, timeout time.Duration) domain.ReservedNumberService {
	return &reservedNumberService{tx: tx, store: store, logger: logger, contextTimeout: timeout}
}

// dedupe returns the distinct numbers in ascending order.
func dedupe(numbers []int) []int {
	seen := make(map[int]struct{}, len(numbers))
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Add reserves numbers in the event. The whole batch is rejected when any value lies
// outside 1..MaxNumber. Already reserved values are accepted. Returns the full reserved set.
func (s *reservedNumberService) Add(ctx context.Context, eventID string, numbers []int) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	numbers = dedupe(numbers)
	if len(numbers) == 0 {
		return nil, domain.InvalidInputError("no numbers given")
	}

	var out []int
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		event, err := st.Events().Lock(ctx, eventID)
		if err != nil {
			return err
		}
		var bad []int
		for _, n := range numbers {
			if n < 1 || n > event.MaxNumber {
				bad = append(bad, n)
			}
		}
		if len(bad) > 0 {
			return domain.InvalidInputError("numbers out of range 1..%d: %v", event.MaxNumber, bad)
		}
		if err := st.ReservedNumbers().Add(ctx, eventID, numbers); err != nil {
			return fmt.Errorf("add reserved numbers: %w", err)
		}
		out, err = st.ReservedNumbers().ListByEvent(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "numbers reserved", "event_id", eventID, "numbers", numbers)
	return nonNil(out), nil
}

func (s *reservedNumberService) Remove(ctx context.Context, eventID string, numbers []int) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	numbers = dedupe(numbers)
	if len(numbers) == 0 {
		return nil, domain.InvalidInputError("no numbers given")
	}

	var out []int
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		if _, err := st.Events().Lock(ctx, eventID); err != nil {
			return err
		}
		if err := st.ReservedNumbers().Remove(ctx, eventID, numbers); err != nil {
			return fmt.Errorf("remove reserved numbers: %w", err)
		}
		var err error
		out, err = st.ReservedNumbers().ListByEvent(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "numbers released", "event_id", eventID, "numbers", numbers)
	return nonNil(out), nil
}

func (s *reservedNumberService) List(ctx context.Context, eventID string) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.store.Events().GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	out, err := s.store.ReservedNumbers().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list reserved numbers: %w", err)
	}
	return nonNil(out), nil
}

func nonNil(n []int) []int {
	if n == nil {
		return []int{}
	}
	return n
}
