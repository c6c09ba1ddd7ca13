package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventregistry/internal/domain"
	"eventregistry/internal/metrics"
)

// errPreviewRollback aborts the preview transaction after the outcome has been captured.
var errPreviewRollback = errors.New("preview rollback")

type fixedNumberService struct {
	tx             domain.TxManager
	store          domain.Store
	emailService   domain.EmailService
	notifyTo       string
	metrics        *metrics.Metrics
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewFixedNumberService returns the fixed binding registry. When notifyTo is set and emailService
// is non-nil, committed bindings that moved anyone are reported by email.
func NewFixedNumberService(tx domain.TxManager, store domain.Store, emailService domain.EmailService, notifyTo string,
	m *metrics.Metrics, logger *slog.Logger, timeout time.Duration,
) domain.FixedNumberService {
	return &fixedNumberService{
		tx:             tx,
		store:          store,
		emailService:   emailService,
		notifyTo:       notifyTo,
		metrics:        m,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func validateBinding(nickname string, number int) (string, error) {
	nickname = domain.NormalizeNickname(nickname)
	if nickname == "" {
		return "", domain.InvalidInputError("nickname is required")
	}
	if number < 1 || number > domain.MaxFixedNumber {
		return "", domain.InvalidInputError("number must be between 1 and %d", domain.MaxFixedNumber)
	}
	return nickname, nil
}

func (s *fixedNumberService) Create(ctx context.Context, nickname string, number int) (*domain.BindingOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	nickname, err := validateBinding(nickname, number)
	if err != nil {
		return nil, err
	}

	var outcome *domain.BindingOutcome
	err = withRetry(ctx, s.metrics, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
			o, err := s.bind(ctx, st, nickname, number)
			outcome = o
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddEvictions(len(outcome.Evictions))
	for range outcome.Reassignments {
		s.metrics.IncrementAssigned(metrics.StrategyFixed)
	}
	s.logger.InfoContext(ctx, "fixed number bound",
		"nickname", nickname, "number", number,
		"evictions", len(outcome.Evictions), "reassignments", len(outcome.Reassignments))
	s.notify(ctx, outcome)
	return outcome, nil
}

func (s *fixedNumberService) Preview(ctx context.Context, nickname string, number int) (*domain.BindingOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	nickname, err := validateBinding(nickname, number)
	if err != nil {
		return nil, err
	}

	var outcome *domain.BindingOutcome
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		o, err := s.bind(ctx, st, nickname, number)
		if err != nil {
			return err
		}
		outcome = o
		return errPreviewRollback
	})
	if !errors.Is(err, errPreviewRollback) {
		return nil, err
	}
	outcome.Binding.ID = ""
	return outcome, nil
}

// bind creates the binding, clears the number in every event where another nickname holds it,
// and moves every active registrant with the nickname onto it. It locks every event first.
func (s *fixedNumberService) bind(ctx context.Context, st domain.Store, nickname string, number int) (*domain.BindingOutcome, error) {
	locked, err := st.Events().LockAll(ctx)
	if err != nil {
		return nil, err
	}
	events := make(map[string]*domain.Event, len(locked))
	for _, e := range locked {
		events[e.ID] = e
	}
	eventOf := func(id string) (*domain.Event, error) {
		if e, ok := events[id]; ok {
			return e, nil
		}
		e, err := st.Events().Lock(ctx, id)
		if err != nil {
			return nil, err
		}
		events[id] = e
		return e, nil
	}

	if existing, err := st.FixedNumbers().GetByNickname(ctx, nickname); err == nil {
		return nil, &domain.BindingConflictError{Err: domain.ErrDuplicateIdentifier, Existing: existing}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup fixed nickname: %w", err)
	}
	if existing, err := st.FixedNumbers().GetByNumber(ctx, number); err == nil {
		return nil, &domain.BindingConflictError{Err: domain.ErrDuplicateNumber, Existing: existing}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup fixed number: %w", err)
	}

	binding := &domain.FixedNumber{Nickname: nickname, Number: number, CreatedAt: s.now()}
	if err := st.FixedNumbers().Create(ctx, binding); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentifier) || errors.Is(err, domain.ErrDuplicateNumber) {
			return nil, &domain.BindingConflictError{Err: err}
		}
		return nil, fmt.Errorf("create fixed number: %w", err)
	}
	outcome := &domain.BindingOutcome{
		Binding:       binding,
		Evictions:     []*domain.Eviction{},
		Reassignments: []*domain.Reassignment{},
	}

	holders, err := st.Registrants().ListActiveHoldingNumber(ctx, number, nickname)
	if err != nil {
		return nil, fmt.Errorf("list holders of %d: %w", number, err)
	}
	for _, h := range holders {
		event, err := eventOf(h.EventID)
		if err != nil {
			return nil, err
		}
		ev, err := clearSeat(ctx, st, event, number, "")
		if err != nil {
			return nil, err
		}
		if ev != nil {
			outcome.Evictions = append(outcome.Evictions, ev)
		}
	}

	owners, err := st.Registrants().ListActiveByNickname(ctx, nickname)
	if err != nil {
		return nil, fmt.Errorf("list registrants of @%s: %w", nickname, err)
	}
	for _, o := range owners {
		if o.HasNumber(number) {
			continue
		}
		event, err := eventOf(o.EventID)
		if err != nil {
			return nil, err
		}
		ev, err := clearSeat(ctx, st, event, number, o.ID)
		if err != nil {
			return nil, err
		}
		if ev != nil {
			outcome.Evictions = append(outcome.Evictions, ev)
		}
		from := o.ParticipantNumber
		n := number
		o.ParticipantNumber = &n
		o.UpdatedAt = s.now()
		if err := st.Registrants().Update(ctx, o); err != nil {
			return nil, fmt.Errorf("move @%s onto %d: %w", nickname, number, err)
		}
		outcome.Reassignments = append(outcome.Reassignments, &domain.Reassignment{
			RegistrantID: o.ID,
			EventID:      event.ID,
			EventName:    event.Name,
			DisplayName:  o.DisplayName,
			FromNumber:   from,
			ToNumber:     number,
		})
	}
	return outcome, nil
}

// notify mails the eviction report. Failures are logged; the binding stays committed.
func (s *fixedNumberService) notify(ctx context.Context, outcome *domain.BindingOutcome) {
	if s.emailService == nil || s.notifyTo == "" {
		return
	}
	if len(outcome.Evictions) == 0 && len(outcome.Reassignments) == 0 {
		return
	}
	data := &domain.EvictionReportEmailData{
		To:            s.notifyTo,
		Nickname:      outcome.Binding.Nickname,
		Number:        outcome.Binding.Number,
		Evictions:     outcome.Evictions,
		Reassignments: outcome.Reassignments,
	}
	if err := s.emailService.SendEvictionReport(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "eviction report not sent", "to", s.notifyTo, "err", err)
	}
}

func (s *fixedNumberService) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.store.FixedNumbers().Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete fixed number: %w", err)
	}
	return nil
}

func (s *fixedNumberService) List(ctx context.Context) ([]*domain.FixedNumber, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	list, err := s.store.FixedNumbers().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fixed numbers: %w", err)
	}
	if list == nil {
		list = []*domain.FixedNumber{}
	}
	return list, nil
}

func (s *fixedNumberService) LookupByNickname(ctx context.Context, nickname string) (*domain.FixedNumber, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.store.FixedNumbers().GetByNickname(ctx, domain.NormalizeNickname(nickname))
}

func (s *fixedNumberService) LookupByNumber(ctx context.Context, number int) (*domain.FixedNumber, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.store.FixedNumbers().GetByNumber(ctx, number)
}
