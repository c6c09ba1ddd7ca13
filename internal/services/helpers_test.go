package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"eventregistry/internal/domain"
	"eventregistry/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEmailService records eviction reports.
type fakeEmailService struct {
	mu      sync.Mutex
	reports []*domain.EvictionReportEmailData
	err     error
}

func (f *fakeEmailService) SendEvictionReport(ctx context.Context, data *domain.EvictionReportEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, data)
	return nil
}

type harness struct {
	db          *memDB
	metrics     *metrics.Metrics
	email       *fakeEmailService
	registrants domain.RegistrantService
	fixed       domain.FixedNumberService
	reserved    domain.ReservedNumberService
	pool        domain.NumberPoolService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newMemDB()
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), discardLogger())
	email := &fakeEmailService{}
	logger := discardLogger()
	return &harness{
		db:          db,
		metrics:     m,
		email:       email,
		registrants: NewRegistrantService(db, db.Store(), m, logger, testTimeout),
		fixed:       NewFixedNumberService(db, db.Store(), email, "ops@example.com", m, logger, testTimeout),
		reserved:    NewReservedNumberService(db, db.Store(), logger, testTimeout),
		pool:        NewNumberPoolService(db, testTimeout),
	}
}

func (h *harness) register(t *testing.T, eventID, externalID, nickname string) *domain.Registrant {
	t.Helper()
	reg, _, err := h.registrants.Register(context.Background(), eventID, domain.RegistrantInput{
		ExternalID:  externalID,
		Nickname:    nickname,
		DisplayName: externalID,
		Transport:   domain.TransportMoto,
	})
	require.NoError(t, err)
	return reg
}

func number(t *testing.T, reg *domain.Registrant) int {
	t.Helper()
	require.NotNil(t, reg)
	require.NotNil(t, reg.ParticipantNumber, "registrant %s has no number", reg.ID)
	return *reg.ParticipantNumber
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }
