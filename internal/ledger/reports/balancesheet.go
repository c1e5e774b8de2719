package reports

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
)

// balanceTolerance absorbs floating point and rounding drift accumulated by
// upstream systems. The comparison is strict: a discrepancy of exactly one
// cent is reported as unbalanced.
var balanceTolerance = decimal.New(1, -2) // 0.01

// BalanceSheetLine is one account inside a section.
type BalanceSheetLine struct {
	AccountID int64           `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Net       decimal.Decimal `json:"net"`
}

// BalanceSheetSection groups accounts of one classification with totals.
// Liability and Equity nets are reported as non-negative magnitudes; Asset
// nets keep their natural sign.
type BalanceSheetSection struct {
	Type         AccountType        `json:"type"`
	Accounts     []BalanceSheetLine `json:"accounts"`
	TotalDebit   decimal.Decimal    `json:"total_debit"`
	TotalCredit  decimal.Decimal    `json:"total_credit"`
	Net          decimal.Decimal    `json:"net"`
	AccountCount int                `json:"account_count"`
}

// BalanceSheet is the classified view with the fundamental identity check.
type BalanceSheet struct {
	Assets      BalanceSheetSection `json:"assets"`
	Liabilities BalanceSheetSection `json:"liabilities"`
	Equity      BalanceSheetSection `json:"equity"`

	TotalAssets            decimal.Decimal `json:"total_assets"`
	TotalLiabilitiesEquity decimal.Decimal `json:"total_liabilities_equity"`
	// Discrepancy = TotalAssets - TotalLiabilitiesEquity. Displayed, never
	// hidden, when the book does not balance.
	Discrepancy decimal.Decimal `json:"discrepancy"`
	// Balanced is informational: an unbalanced book is reported, not
	// blocked, because postings are append-only and external to this view.
	Balanced    bool `json:"balanced"`
	Approximate bool `json:"approximate"`
}

// Classifier turns aggregated account rows into a balance sheet.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier constructs the classifier.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger}
}

// Classify partitions rows into Asset, Liability and Equity sections and
// evaluates Assets = Liabilities + Equity. Rows without an account or with an
// unmappable declared type are logged and dropped; one bad account never
// fails the whole view. Revenue and Expense rows belong to the P&L and are
// ignored here.
func (c *Classifier) Classify(rows []AccountRow) BalanceSheet {
	bs := BalanceSheet{
		Assets:      newSection(AccountTypeAsset),
		Liabilities: newSection(AccountTypeLiability),
		Equity:      newSection(AccountTypeEquity),
	}

	for _, row := range rows {
		if !row.HasAccount {
			c.logger.Warn("balance without account dropped", slog.Int64("account_id", row.AccountID))
			continue
		}
		accType, err := ParseAccountType(row.Type)
		if err != nil {
			c.logger.Warn("account with unknown type dropped",
				slog.Int64("account_id", row.AccountID),
				slog.String("code", row.Code),
				slog.String("type", row.Type))
			continue
		}

		var section *BalanceSheetSection
		switch accType {
		case AccountTypeAsset:
			section = &bs.Assets
		case AccountTypeLiability:
			section = &bs.Liabilities
		case AccountTypeEquity:
			section = &bs.Equity
		default:
			continue
		}

		section.Accounts = append(section.Accounts, BalanceSheetLine{
			AccountID: row.AccountID,
			Code:      row.Code,
			Name:      row.Name,
			Debit:     row.Debit,
			Credit:    row.Credit,
			Net:       row.Net,
		})
		section.TotalDebit = section.TotalDebit.Add(row.Debit)
		section.TotalCredit = section.TotalCredit.Add(row.Credit)
		if accType == AccountTypeAsset {
			section.Net = section.Net.Add(row.Net)
		} else {
			section.Net = section.Net.Add(row.Net.Abs())
		}
		section.AccountCount++
		if row.Approximate {
			bs.Approximate = true
		}
	}

	for _, section := range []*BalanceSheetSection{&bs.Assets, &bs.Liabilities, &bs.Equity} {
		sort.Slice(section.Accounts, func(i, j int) bool {
			return section.Accounts[i].Code < section.Accounts[j].Code
		})
	}

	bs.TotalAssets = bs.Assets.Net
	bs.TotalLiabilitiesEquity = bs.Liabilities.Net.Add(bs.Equity.Net)
	bs.Discrepancy = bs.TotalAssets.Sub(bs.TotalLiabilitiesEquity)
	bs.Balanced = withinTolerance(bs.Discrepancy)
	return bs
}

func newSection(t AccountType) BalanceSheetSection {
	return BalanceSheetSection{
		Type:        t,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		Net:         decimal.Zero,
	}
}

func withinTolerance(diff decimal.Decimal) bool {
	return diff.Abs().LessThan(balanceTolerance)
}
