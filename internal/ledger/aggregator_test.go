package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagedesk/voyagedesk/internal/shared"
)

type fakeStore struct {
	accounts    []Account
	postings    []Posting
	snapshots   map[string]Snapshot
	postingsErr error
	// upsertFailures counts remaining failures to inject per account id.
	upsertFailures map[int64]int

	accountCalls  int
	snapshotCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snapshots:      make(map[string]Snapshot),
		upsertFailures: make(map[int64]int),
	}
}

func snapKey(accountID int64, period shared.Period) string {
	return fmt.Sprintf("%d|%s", accountID, period.Label())
}

func (f *fakeStore) Accounts(ctx context.Context) ([]Account, error) {
	f.accountCalls++
	return append([]Account(nil), f.accounts...), nil
}

func (f *fakeStore) Postings(ctx context.Context, period shared.Period) ([]Posting, error) {
	if f.postingsErr != nil {
		return nil, f.postingsErr
	}
	var out []Posting
	for _, p := range f.postings {
		if period.Contains(p.Date) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertSnapshot(ctx context.Context, snap Snapshot) error {
	if n := f.upsertFailures[snap.AccountID]; n > 0 {
		f.upsertFailures[snap.AccountID] = n - 1
		return fmt.Errorf("%w: injected", shared.ErrStoreUnavailable)
	}
	period := shared.Period{Start: snap.PeriodStart, End: snap.PeriodEnd}
	f.snapshots[snapKey(snap.AccountID, period)] = snap
	return nil
}

func (f *fakeStore) Snapshots(ctx context.Context, period shared.Period) ([]Snapshot, error) {
	f.snapshotCalls++
	var out []Snapshot
	for _, s := range f.snapshots {
		if s.PeriodStart.Equal(period.Start) && s.PeriodEnd.Equal(period.End) {
			out = append(out, s)
		}
	}
	return out, nil
}

func date(s string) time.Time {
	t, err := time.Parse(shared.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testPeriod(t *testing.T) shared.Period {
	t.Helper()
	p, err := shared.ParsePeriod("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	return p
}

func testAccounts() []Account {
	return []Account{
		{ID: 1, Code: "1000", Name: "Cash", Type: "ASSET"},
		{ID: 2, Code: "2000", Name: "Accounts Payable", Type: "LIABILITY"},
		{ID: 3, Code: "4000", Name: "Ticket Sales", Type: "REVENUE"},
	}
}

func TestRecomputeSumsDebitsAndCreditsExactly(t *testing.T) {
	store := newFakeStore()
	store.accounts = testAccounts()
	store.postings = []Posting{
		{ID: 1, AccountID: 1, Date: date("2026-01-05"), Debit: decimal.NewFromInt(500)},
		{ID: 2, AccountID: 1, Date: date("2026-01-10"), Debit: decimal.RequireFromString("0.10")},
		{ID: 3, AccountID: 1, Date: date("2026-01-12"), Credit: decimal.RequireFromString("0.30")},
		{ID: 4, AccountID: 2, Date: date("2026-01-20"), Credit: decimal.NewFromInt(500)},
	}

	agg := NewAggregator(store, nil)
	snaps, err := agg.Recompute(context.Background(), testPeriod(t))
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	// Debits and credits summed independently; netting happens once at the
	// end on the account's normal side.
	cash := snaps[0]
	assert.Equal(t, int64(1), cash.AccountID)
	assert.True(t, cash.Debit.Equal(decimal.RequireFromString("500.10")), "debit = %s", cash.Debit)
	assert.True(t, cash.Credit.Equal(decimal.RequireFromString("0.30")), "credit = %s", cash.Credit)
	assert.True(t, cash.Net.Equal(decimal.RequireFromString("499.80")), "net = %s", cash.Net)
	assert.Equal(t, SnapshotSourcePostings, cash.Source)

	payable := snaps[1]
	assert.True(t, payable.Debit.IsZero())
	assert.True(t, payable.Credit.Equal(decimal.NewFromInt(500)))
	// Credit-normal account nets credit minus debit.
	assert.True(t, payable.Net.Equal(decimal.NewFromInt(500)))
}

func TestRecomputePeriodBoundariesInclusive(t *testing.T) {
	store := newFakeStore()
	store.accounts = testAccounts()
	store.postings = []Posting{
		{ID: 1, AccountID: 1, Date: date("2026-01-01"), Debit: decimal.NewFromInt(10)},
		{ID: 2, AccountID: 1, Date: date("2026-01-31"), Debit: decimal.NewFromInt(20)},
		{ID: 3, AccountID: 1, Date: date("2025-12-31"), Debit: decimal.NewFromInt(40)},
		{ID: 4, AccountID: 1, Date: date("2026-02-01"), Debit: decimal.NewFromInt(80)},
	}

	agg := NewAggregator(store, nil)
	snaps, err := agg.Recompute(context.Background(), testPeriod(t))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].Debit.Equal(decimal.NewFromInt(30)), "debit = %s", snaps[0].Debit)
}

func TestRecomputeRejectsInvertedPeriod(t *testing.T) {
	agg := NewAggregator(newFakeStore(), nil)
	_, err := agg.Recompute(context.Background(), shared.Period{
		Start: date("2026-02-01"),
		End:   date("2026-01-01"),
	})
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestRecomputeAbortsWhenPostingsUnreadable(t *testing.T) {
	store := newFakeStore()
	store.accounts = testAccounts()
	store.postingsErr = fmt.Errorf("%w: boom", shared.ErrStoreUnavailable)

	agg := NewAggregator(store, nil)
	snaps, err := agg.Recompute(context.Background(), testPeriod(t))
	require.ErrorIs(t, err, shared.ErrStoreUnavailable)
	assert.Empty(t, snaps)
	assert.Empty(t, store.snapshots, "no partial snapshot may be written")
}

func TestRecomputeRetriesRowsIndependently(t *testing.T) {
	store := newFakeStore()
	store.accounts = testAccounts()
	store.postings = []Posting{
		{ID: 1, AccountID: 1, Date: date("2026-01-05"), Debit: decimal.NewFromInt(100)},
		{ID: 2, AccountID: 2, Date: date("2026-01-06"), Credit: decimal.NewFromInt(100)},
	}
	// Account 1 fails once then succeeds on retry.
	store.upsertFailures[1] = 1

	agg := NewAggregator(store, nil)
	snaps, err := agg.Recompute(context.Background(), testPeriod(t))
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
	assert.Len(t, store.snapshots, 2)
}

func TestRecomputeReportsRowsThatKeepFailing(t *testing.T) {
	store := newFakeStore()
	store.accounts = testAccounts()
	store.postings = []Posting{
		{ID: 1, AccountID: 1, Date: date("2026-01-05"), Debit: decimal.NewFromInt(100)},
		{ID: 2, AccountID: 2, Date: date("2026-01-06"), Credit: decimal.NewFromInt(100)},
	}
	// Account 1 exhausts every attempt.
	store.upsertFailures[1] = upsertAttempts + 1

	agg := NewAggregator(store, nil)
	snaps, err := agg.Recompute(context.Background(), testPeriod(t))
	require.Error(t, err)
	// The other row still landed; the caller verifies row counts.
	assert.Len(t, snaps, 1)
	assert.Equal(t, int64(2), snaps[0].AccountID)
}

func TestRecomputeReplacesSnapshotsInsteadOfAppending(t *testing.T) {
	store := newFakeStore()
	store.accounts = testAccounts()
	store.postings = []Posting{
		{ID: 1, AccountID: 1, Date: date("2026-01-05"), Debit: decimal.NewFromInt(100)},
	}

	agg := NewAggregator(store, nil)
	period := testPeriod(t)
	_, err := agg.Recompute(context.Background(), period)
	require.NoError(t, err)

	// Backfill more postings; the same key must be overwritten, not doubled.
	store.postings = append(store.postings,
		Posting{ID: 2, AccountID: 1, Date: date("2026-01-06"), Debit: decimal.NewFromInt(50)})
	_, err = agg.Recompute(context.Background(), period)
	require.NoError(t, err)

	require.Len(t, store.snapshots, 1)
	snap := store.snapshots[snapKey(1, period)]
	assert.True(t, snap.Debit.Equal(decimal.NewFromInt(150)), "debit = %s", snap.Debit)
}

func TestRecomputeFallsBackToRunningBalances(t *testing.T) {
	store := newFakeStore()
	store.accounts = []Account{
		{ID: 1, Code: "1000", Name: "Cash", Type: "ASSET", CurrentBalance: decimal.NewFromInt(750)},
		// Localized labels resolve through the same alias table.
		{ID: 2, Code: "2000", Name: "Hutang Usaha", Type: "Kewajiban", CurrentBalance: decimal.NewFromInt(750)},
		{ID: 3, Code: "1", Name: "Assets Header", Type: "ASSET", IsHeader: true, CurrentBalance: decimal.NewFromInt(750)},
		{ID: 4, Code: "3000", Name: "Dormant", Type: "EQUITY"},
	}

	agg := NewAggregator(store, nil)
	snaps, err := agg.Recompute(context.Background(), testPeriod(t))
	require.NoError(t, err)
	// Header and zero-balance accounts are skipped.
	require.Len(t, snaps, 2)
	for _, snap := range snaps {
		assert.Equal(t, SnapshotSourceAccountBalance, snap.Source, "fallback rows must be flagged")
	}
	assert.True(t, snaps[0].Debit.Equal(decimal.NewFromInt(750)), "asset balance lands on debit side")
	assert.True(t, snaps[1].Credit.Equal(decimal.NewFromInt(750)), "liability balance lands on credit side")
}

func TestRecomputeFailsWithoutAccounts(t *testing.T) {
	agg := NewAggregator(newFakeStore(), nil)
	_, err := agg.Recompute(context.Background(), testPeriod(t))
	require.ErrorIs(t, err, ErrNoAccounts)
}

func TestRecomputeSkipsMalformedPostings(t *testing.T) {
	store := newFakeStore()
	store.accounts = testAccounts()
	store.postings = []Posting{
		{ID: 1, AccountID: 1, Date: date("2026-01-05"), Debit: decimal.NewFromInt(100)},
		{ID: 2, AccountID: 1, Date: date("2026-01-06"), Debit: decimal.NewFromInt(5), Credit: decimal.NewFromInt(5)},
	}

	agg := NewAggregator(store, nil)
	snaps, err := agg.Recompute(context.Background(), testPeriod(t))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].Debit.Equal(decimal.NewFromInt(100)))
}
