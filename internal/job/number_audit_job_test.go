package job

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"eventregistry/internal/domain"
	"eventregistry/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockConflictLister struct {
	mock.Mock
}

func (m *MockConflictLister) ListNumberConflicts(ctx context.Context) ([]*domain.NumberConflict, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.NumberConflict), args.Error(1)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewWithRegistry(prometheus.NewRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func gauge(m *metrics.Metrics, kind string) float64 {
	return testutil.ToFloat64(m.NumberConflicts.WithLabelValues(kind))
}

func TestNumberAuditJob_Run(t *testing.T) {
	lister := new(MockConflictLister)
	m := newTestMetrics()
	j := NewNumberAuditJob(lister, m, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second)

	lister.On("ListNumberConflicts", mock.Anything).Return([]*domain.NumberConflict{
		{Kind: domain.ConflictReserved, EventID: "ev-1", RegistrantID: "reg-1", Number: 5},
		{Kind: domain.ConflictFixed, EventID: "ev-1", RegistrantID: "reg-2", Number: 7},
		{Kind: domain.ConflictFixed, EventID: "ev-2", RegistrantID: "reg-9", Number: 7},
	}, nil).Once()
	j.Run()

	assert.Equal(t, 0.0, gauge(m, domain.ConflictDuplicate))
	assert.Equal(t, 1.0, gauge(m, domain.ConflictReserved))
	assert.Equal(t, 2.0, gauge(m, domain.ConflictFixed))

	lister.On("ListNumberConflicts", mock.Anything).Return([]*domain.NumberConflict{}, nil).Once()
	j.Run()
	assert.Equal(t, 0.0, gauge(m, domain.ConflictFixed), "a clean run resets the gauge")

	lister.AssertExpectations(t)
}

func TestNumberAuditJob_RunKeepsGaugeOnError(t *testing.T) {
	lister := new(MockConflictLister)
	m := newTestMetrics()
	m.SetConflicts(conflictKinds, map[string]int{domain.ConflictDuplicate: 3})
	j := NewNumberAuditJob(lister, m, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second)

	lister.On("ListNumberConflicts", mock.Anything).Return(nil, errors.New("db down"))
	j.Run()

	assert.Equal(t, 3.0, gauge(m, domain.ConflictDuplicate))
	lister.AssertExpectations(t)
}

type fixedStats sql.DBStats

func (s fixedStats) Stats() sql.DBStats { return sql.DBStats(s) }

func TestDBStatsJob_Run(t *testing.T) {
	m := newTestMetrics()
	NewDBStatsJob(fixedStats{OpenConnections: 4, InUse: 3, Idle: 1}, m).Run()

	assert.Equal(t, 4.0, testutil.ToFloat64(m.DBConnectionsOpen))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DBConnectionsInUse))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBConnectionsIdle))
}
