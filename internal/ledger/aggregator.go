package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voyagedesk/voyagedesk/internal/ledger/reports"
	"github.com/voyagedesk/voyagedesk/internal/shared"
)

// upsertAttempts bounds the per-row retry loop. Snapshot writes are row-level
// transactional: one failed account does not abort the others.
const upsertAttempts = 2

// Aggregator recomputes period-scoped trial balance snapshots from raw
// ledger postings.
type Aggregator struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator constructs the aggregator.
func NewAggregator(store Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: store, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (a *Aggregator) WithNow(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

// Recompute rebuilds the trial balance for the inclusive period and upserts
// one snapshot row per account touched. Debits and credits are summed
// independently; netting happens once per account at the end, on the
// account's normal balance side.
//
// A failure to read postings aborts the whole recompute. A failure to persist
// one row is retried independently; rows that still fail are reported in the
// returned error while the remaining rows stay written.
func (a *Aggregator) Recompute(ctx context.Context, period shared.Period) ([]Snapshot, error) {
	if period.Start.After(period.End) {
		return nil, fmt.Errorf("%w: start %s after end %s", ErrInvalidPeriod,
			period.Start.Format(shared.DateLayout), period.End.Format(shared.DateLayout))
	}

	accounts, err := a.store.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: load accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	byID := make(map[int64]Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}

	postings, err := a.store.Postings(ctx, period)
	if err != nil {
		// No partial snapshot: abort before any write happens.
		return nil, fmt.Errorf("ledger: load postings: %w", err)
	}

	var snaps []Snapshot
	if len(postings) == 0 {
		snaps = a.fallbackSnapshots(accounts, period)
		a.logger.Warn("trial balance fallback to running balances",
			slog.String("period", period.Label()),
			slog.Int("accounts", len(snaps)))
	} else {
		snaps = a.aggregate(postings, byID, period)
	}

	written := make([]Snapshot, 0, len(snaps))
	var failures []error
	for _, snap := range snaps {
		if err := a.upsertWithRetry(ctx, snap); err != nil {
			failures = append(failures, err)
			a.logger.Error("snapshot upsert failed",
				slog.Int64("account_id", snap.AccountID),
				slog.Any("error", err))
			continue
		}
		written = append(written, snap)
	}
	if len(failures) > 0 {
		return written, fmt.Errorf("ledger: %d of %d snapshot rows failed: %w",
			len(failures), len(snaps), errors.Join(failures...))
	}
	return written, nil
}

// aggregate groups postings by account and sums debit and credit columns
// without netting during summation.
func (a *Aggregator) aggregate(postings []Posting, accounts map[int64]Account, period shared.Period) []Snapshot {
	sums := make(map[int64]*Snapshot)
	order := make([]int64, 0)
	for _, p := range postings {
		if err := p.Validate(); err != nil {
			a.logger.Warn("skipping malformed posting", slog.Int64("posting_id", p.ID), slog.Any("error", err))
			continue
		}
		snap, ok := sums[p.AccountID]
		if !ok {
			snap = &Snapshot{
				AccountID:   p.AccountID,
				PeriodStart: period.Start,
				PeriodEnd:   period.End,
				Source:      SnapshotSourcePostings,
			}
			sums[p.AccountID] = snap
			order = append(order, p.AccountID)
		}
		snap.Debit = snap.Debit.Add(p.Debit)
		snap.Credit = snap.Credit.Add(p.Credit)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	now := a.now()
	result := make([]Snapshot, 0, len(order))
	for _, id := range order {
		snap := sums[id]
		side := reports.NormalSideDebit
		if acc, ok := accounts[id]; ok {
			side = normalSide(acc)
		}
		snap.Net = netBalance(snap.Debit, snap.Credit, side)
		snap.UpdatedAt = now
		result = append(result, *snap)
	}
	return result
}

// fallbackSnapshots derives approximate rows from each account's running
// balance when the ledger holds no postings for the period. Header accounts
// are skipped since they only aggregate children.
func (a *Aggregator) fallbackSnapshots(accounts []Account, period shared.Period) []Snapshot {
	now := a.now()
	snaps := make([]Snapshot, 0, len(accounts))
	for _, acc := range accounts {
		if acc.IsHeader || acc.CurrentBalance.IsZero() {
			continue
		}
		snap := Snapshot{
			AccountID:   acc.ID,
			PeriodStart: period.Start,
			PeriodEnd:   period.End,
			Source:      SnapshotSourceAccountBalance,
			UpdatedAt:   now,
		}
		side := normalSide(acc)
		if side == reports.NormalSideDebit {
			snap.Debit = acc.CurrentBalance
		} else {
			snap.Credit = acc.CurrentBalance
		}
		snap.Net = netBalance(snap.Debit, snap.Credit, side)
		snaps = append(snaps, snap)
	}
	return snaps
}

func (a *Aggregator) upsertWithRetry(ctx context.Context, snap Snapshot) error {
	var err error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		if err = a.store.UpsertSnapshot(ctx, snap); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

// normalSide resolves the account's normal balance side from its declared
// type label. Unmappable labels fall back to debit-normal; classification
// drops them later anyway.
func normalSide(acc Account) reports.NormalSide {
	t, err := reports.ParseAccountType(acc.Type)
	if err != nil {
		return reports.NormalSideDebit
	}
	return t.NormalSide()
}

// netBalance nets the summed columns on the account's normal side: debit
// minus credit for debit-normal accounts, credit minus debit otherwise.
func netBalance(debit, credit decimal.Decimal, side reports.NormalSide) decimal.Decimal {
	if side == reports.NormalSideDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}
