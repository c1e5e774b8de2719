package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/voyagedesk/voyagedesk/internal/ledger"
	"github.com/voyagedesk/voyagedesk/internal/observability"
	"github.com/voyagedesk/voyagedesk/internal/shared"
)

// TBRefreshJob recomputes trial balance snapshots in the background so
// dashboard reads stay warm without on-demand recomputes.
type TBRefreshJob struct {
	service *ledger.Service
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewTBRefreshJob constructs the job handler.
func NewTBRefreshJob(service *ledger.Service, metrics *observability.Metrics, logger *slog.Logger) *TBRefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &TBRefreshJob{service: service, metrics: metrics, logger: logger, now: time.Now}
}

// Handle processes TaskTBRefresh tasks. Concurrent refreshes of the same
// period converge on the same values, so a racing duplicate is harmless.
func (j *TBRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload TBRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	period, err := j.period(payload)
	if err != nil {
		j.logger.Error("tb refresh period invalid", slog.Any("error", err))
		return asynq.SkipRetry
	}

	started := j.now()
	snaps, err := j.service.Recompute(ctx, period)
	j.metrics.ObserveRecompute(j.now().Sub(started))
	if err != nil {
		j.logger.Error("tb refresh failed",
			slog.String("period", period.Label()),
			slog.Int("rows_written", len(snaps)),
			slog.Any("error", err))
		return err
	}
	// Publish the identity gap from the freshly computed figures; the gauge
	// is how an unbalanced book surfaces outside the dashboard.
	if bs, bsErr := j.service.GetBalanceSheet(ctx, period); bsErr == nil {
		j.metrics.SetBalanceGap(bs.Discrepancy.InexactFloat64())
	}

	j.logger.Info("tb refresh completed",
		slog.String("period", period.Label()),
		slog.Int("rows_written", len(snaps)))
	return nil
}

func (j *TBRefreshJob) period(payload TBRefreshPayload) (shared.Period, error) {
	if payload.PeriodStart == "" && payload.PeriodEnd == "" {
		return shared.MonthOf(j.now()), nil
	}
	return shared.ParsePeriod(payload.PeriodStart, payload.PeriodEnd)
}
