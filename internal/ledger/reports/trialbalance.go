// Package reports derives the dashboard's trial balance and balance sheet
// views. Inputs arrive as pre-joined AccountRow values built by the caller;
// everything here is pure read/derive and the store is never touched.
package reports

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AccountRow is one aggregated account balance fed to the report builders.
// Type carries the declared account type as stored, localized labels
// included; HasAccount is false when the balance has no matching chart of
// accounts entry.
type AccountRow struct {
	AccountID   int64
	Code        string
	Name        string
	Type        string
	HasAccount  bool
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Net         decimal.Decimal
	Source      string
	Approximate bool
}

// TrialBalanceRow is one account line of the trial balance report.
type TrialBalanceRow struct {
	AccountID   int64           `json:"account_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Net         decimal.Decimal `json:"net"`
	Source      string          `json:"source"`
	Approximate bool            `json:"approximate"`
}

// TrialBalance is the rendered report with column totals.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	// Balanced reports whether total debits equal total credits within the
	// rounding tolerance. Informational only.
	Balanced    bool `json:"balanced"`
	Approximate bool `json:"approximate"`
}

// BuildTrialBalance renders the rows and totals the debit and credit columns.
// Rows without a matching account keep their amounts but carry no code or
// name; they still count toward the totals so the report never under-reports
// the ledger.
func BuildTrialBalance(rows []AccountRow) TrialBalance {
	tb := TrialBalance{
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, row := range rows {
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			AccountID:   row.AccountID,
			Code:        row.Code,
			Name:        row.Name,
			Type:        row.Type,
			Debit:       row.Debit,
			Credit:      row.Credit,
			Net:         row.Net,
			Source:      row.Source,
			Approximate: row.Approximate,
		})
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		if row.Approximate {
			tb.Approximate = true
		}
	}

	sort.Slice(tb.Rows, func(i, j int) bool {
		if tb.Rows[i].Code != tb.Rows[j].Code {
			return tb.Rows[i].Code < tb.Rows[j].Code
		}
		return tb.Rows[i].AccountID < tb.Rows[j].AccountID
	})
	tb.Balanced = withinTolerance(tb.TotalDebit.Sub(tb.TotalCredit))
	return tb
}
