package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/voyagedesk/voyagedesk/internal/shared"
)

// Store is the persistence boundary for the ledger module. It carries no
// business rules; aggregation and classification live in the services.
type Store interface {
	Accounts(ctx context.Context) ([]Account, error)
	Postings(ctx context.Context, period shared.Period) ([]Posting, error)
	UpsertSnapshot(ctx context.Context, snap Snapshot) error
	Snapshots(ctx context.Context, period shared.Period) ([]Snapshot, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed ledger store.
func NewRepository(pool *pgxpool.Pool) Store {
	return &repository{pool: pool}
}

func (r *repository) Accounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, name, type, parent_id, is_header, current_balance, created_at, updated_at
		FROM accounts
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list accounts: %w", wrapStoreErr(err))
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var (
			a       Account
			balance decimal.Decimal
		)
		// Stored type labels may be localized; they are kept verbatim so the
		// classifier can normalize, or log and skip, downstream.
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.IsHeader, &balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan account: %w", err)
		}
		a.CurrentBalance = balance
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Postings(ctx context.Context, period shared.Period) ([]Posting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, entry_date, debit_amount, credit_amount
		FROM ledger_postings
		WHERE entry_date >= $1 AND entry_date <= $2
		ORDER BY entry_date, id`, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("ledger: list postings: %w", wrapStoreErr(err))
	}
	defer rows.Close()

	var postings []Posting
	for rows.Next() {
		var p Posting
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Date, &p.Debit, &p.Credit); err != nil {
			return nil, fmt.Errorf("ledger: scan posting: %w", err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func (r *repository) UpsertSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO trial_balance_snapshots
			(account_id, period_start, period_end, debit_balance, credit_balance, net_balance, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id, period_start, period_end) DO UPDATE SET
			debit_balance = EXCLUDED.debit_balance,
			credit_balance = EXCLUDED.credit_balance,
			net_balance = EXCLUDED.net_balance,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at`,
		snap.AccountID, snap.PeriodStart, snap.PeriodEnd,
		snap.Debit, snap.Credit, snap.Net, string(snap.Source), snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ledger: upsert snapshot account %d: %w", snap.AccountID, wrapStoreErr(err))
	}
	return nil
}

func (r *repository) Snapshots(ctx context.Context, period shared.Period) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id, period_start, period_end, debit_balance, credit_balance, net_balance, source, updated_at
		FROM trial_balance_snapshots
		WHERE period_start = $1 AND period_end = $2
		ORDER BY account_id`, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("ledger: list snapshots: %w", wrapStoreErr(err))
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			s      Snapshot
			source string
		)
		if err := rows.Scan(&s.AccountID, &s.PeriodStart, &s.PeriodEnd, &s.Debit, &s.Credit, &s.Net, &source, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan snapshot: %w", err)
		}
		s.Source = SnapshotSource(source)
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

func wrapStoreErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
}
