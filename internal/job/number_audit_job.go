package job

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"eventregistry/internal/domain"
	"eventregistry/internal/metrics"
)

// conflictKinds are exported even when zero so the gauge resets after a fix.
var conflictKinds = []string{domain.ConflictDuplicate, domain.ConflictReserved, domain.ConflictFixed}

// ConflictLister is the read side the audit needs.
type ConflictLister interface {
	ListNumberConflicts(ctx context.Context) ([]*domain.NumberConflict, error)
}

// NumberAuditJob reports registrants whose numbers break allocation rules. It never reassigns.
type NumberAuditJob struct {
	registrants ConflictLister
	metrics     *metrics.Metrics
	logger      *slog.Logger
	timeout     time.Duration
}

func NewNumberAuditJob(registrants ConflictLister, m *metrics.Metrics, logger *slog.Logger, timeout time.Duration) *NumberAuditJob {
	return &NumberAuditJob{registrants: registrants, metrics: m, logger: logger, timeout: timeout}
}

// Run implements cron.Job.
func (j *NumberAuditJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	conflicts, err := j.registrants.ListNumberConflicts(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "number audit failed", "err", err)
		return
	}

	counts := make(map[string]int, len(conflictKinds))
	for _, c := range conflicts {
		counts[c.Kind]++
		j.logger.WarnContext(ctx, "number conflict",
			"kind", c.Kind, "event_id", c.EventID, "registrant_id", c.RegistrantID, "number", c.Number)
	}
	j.metrics.SetConflicts(conflictKinds, counts)

	if len(conflicts) == 0 {
		j.logger.DebugContext(ctx, "number audit clean")
		return
	}
	j.logger.InfoContext(ctx, "number audit completed", "conflicts", len(conflicts))
}

// StatsSource is satisfied by *sql.DB.
type StatsSource interface {
	Stats() sql.DBStats
}

// DBStatsJob copies connection pool stats into the metrics gauges.
type DBStatsJob struct {
	db      StatsSource
	metrics *metrics.Metrics
}

func NewDBStatsJob(db StatsSource, m *metrics.Metrics) *DBStatsJob {
	return &DBStatsJob{db: db, metrics: m}
}

func (j *DBStatsJob) Run() {
	j.metrics.UpdateDBStats(j.db.Stats())
}
