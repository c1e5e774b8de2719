package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account models a chart of accounts node. Header accounts aggregate their
// children and never receive postings directly. Type holds the declared
// label as stored, localized values included; canonicalization is a report
// concern (reports.ParseAccountType).
type Account struct {
	ID             int64
	Code           string
	Name           string
	Type           string
	ParentID       *int64
	IsHeader       bool
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Posting is one immutable debit or credit entry against an account.
// Exactly one of Debit/Credit is non-zero, or both are zero for a no-op row.
type Posting struct {
	ID        int64
	AccountID int64
	Date      time.Time
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Validate enforces the posting shape invariant.
func (p Posting) Validate() error {
	if p.AccountID == 0 {
		return errors.New("ledger: posting missing account")
	}
	if p.Debit.IsNegative() || p.Credit.IsNegative() {
		return fmt.Errorf("ledger: posting %d negative amount", p.ID)
	}
	if p.Debit.IsPositive() && p.Credit.IsPositive() {
		return fmt.Errorf("ledger: posting %d cannot be both debit and credit", p.ID)
	}
	return nil
}

// SnapshotSource marks snapshot provenance. Balance-derived rows trade
// historical accuracy for availability and must be treated as approximate.
type SnapshotSource string

const (
	SnapshotSourcePostings       SnapshotSource = "postings"
	SnapshotSourceAccountBalance SnapshotSource = "account_balance"
)

// Snapshot is one trial balance row, keyed by (AccountID, PeriodStart,
// PeriodEnd). Recomputation replaces rows for the same key, never appends.
type Snapshot struct {
	AccountID   int64
	PeriodStart time.Time
	PeriodEnd   time.Time
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Net         decimal.Decimal
	Source      SnapshotSource
	UpdatedAt   time.Time
}

var (
	// ErrInvalidPeriod indicates a period whose start is after its end.
	ErrInvalidPeriod = errors.New("ledger: invalid period")
	// ErrNoAccounts indicates the chart of accounts is empty.
	ErrNoAccounts = errors.New("ledger: no accounts defined")
)
