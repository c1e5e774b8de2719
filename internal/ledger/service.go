package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voyagedesk/voyagedesk/internal/ledger/reports"
	"github.com/voyagedesk/voyagedesk/internal/shared"
)

// Service exposes the reporting contract consumed by dashboard views and
// wires recomputation to cache invalidation.
type Service struct {
	store      Store
	aggregator *Aggregator
	classifier *reports.Classifier
	cache      *ReportCache
	logger     *slog.Logger
}

// NewService constructs the ledger service.
func NewService(store Store, aggregator *Aggregator, cache *ReportCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		aggregator: aggregator,
		classifier: reports.NewClassifier(logger),
		cache:      cache,
		logger:     logger,
	}
}

// Recompute rebuilds the period's snapshots and invalidates cached views.
// The returned rows are the ones actually written; callers must verify row
// counts rather than assume the whole period landed.
func (s *Service) Recompute(ctx context.Context, period shared.Period) ([]Snapshot, error) {
	snaps, err := s.aggregator.Recompute(ctx, period)
	if len(snaps) > 0 {
		if bumpErr := s.cache.Bump(ctx); bumpErr != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", bumpErr))
		}
	}
	return snaps, err
}

// GetTrialBalance returns the period's trial balance view.
func (s *Service) GetTrialBalance(ctx context.Context, period shared.Period) (reports.TrialBalance, error) {
	key, err := s.cache.BuildKey(ctx, "ledger", "tb", period.Label())
	if err != nil {
		s.logger.Warn("trial balance cache key", slog.Any("error", err))
		return s.buildTrialBalance(ctx, period)
	}
	var tb reports.TrialBalance
	err = s.cache.FetchJSON(ctx, key, &tb, func(ctx context.Context) (any, error) {
		return s.buildTrialBalance(ctx, period)
	})
	return tb, err
}

// GetBalanceSheet returns the period's classified balance sheet view.
func (s *Service) GetBalanceSheet(ctx context.Context, period shared.Period) (reports.BalanceSheet, error) {
	key, err := s.cache.BuildKey(ctx, "ledger", "bs", period.Label())
	if err != nil {
		s.logger.Warn("balance sheet cache key", slog.Any("error", err))
		return s.buildBalanceSheet(ctx, period)
	}
	var bs reports.BalanceSheet
	err = s.cache.FetchJSON(ctx, key, &bs, func(ctx context.Context) (any, error) {
		return s.buildBalanceSheet(ctx, period)
	})
	return bs, err
}

func (s *Service) buildTrialBalance(ctx context.Context, period shared.Period) (reports.TrialBalance, error) {
	rows, err := s.loadRows(ctx, period)
	if err != nil {
		return reports.TrialBalance{}, err
	}
	return reports.BuildTrialBalance(rows), nil
}

func (s *Service) buildBalanceSheet(ctx context.Context, period shared.Period) (reports.BalanceSheet, error) {
	rows, err := s.loadRows(ctx, period)
	if err != nil {
		return reports.BalanceSheet{}, err
	}
	return s.classifier.Classify(rows), nil
}

func (s *Service) loadRows(ctx context.Context, period shared.Period) ([]reports.AccountRow, error) {
	snaps, accounts, err := s.load(ctx, period)
	if err != nil {
		return nil, err
	}
	return accountRows(snaps, accounts), nil
}

// accountRows joins snapshots to their accounts and shapes them for the
// report builders. Snapshots whose account is gone are kept with HasAccount
// unset: the trial balance still counts them, the classifier drops them.
func accountRows(snaps []Snapshot, accounts []Account) []reports.AccountRow {
	byID := make(map[int64]Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}
	rows := make([]reports.AccountRow, 0, len(snaps))
	for _, snap := range snaps {
		row := reports.AccountRow{
			AccountID:   snap.AccountID,
			Debit:       snap.Debit,
			Credit:      snap.Credit,
			Net:         snap.Net,
			Source:      string(snap.Source),
			Approximate: snap.Source == SnapshotSourceAccountBalance,
		}
		if acc, ok := byID[snap.AccountID]; ok {
			row.Code = acc.Code
			row.Name = acc.Name
			row.Type = acc.Type
			row.HasAccount = true
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Service) load(ctx context.Context, period shared.Period) ([]Snapshot, []Account, error) {
	snaps, err := s.store.Snapshots(ctx, period)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger: load snapshots: %w", err)
	}
	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger: load accounts: %w", err)
	}
	return snaps, accounts, nil
}
