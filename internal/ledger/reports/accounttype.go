package reports

import (
	"errors"
	"fmt"
	"strings"
)

// AccountType enumerates the canonical chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// accountTypeAliases maps localized and legacy labels onto canonical types.
// The hosted dashboard historically stored Indonesian labels next to English
// ones, so classification accepts both at the boundary and nowhere else.
var accountTypeAliases = map[string]AccountType{
	"asset":       AccountTypeAsset,
	"aset":        AccountTypeAsset,
	"aktiva":      AccountTypeAsset,
	"harta":       AccountTypeAsset,
	"liability":   AccountTypeLiability,
	"liabilitas":  AccountTypeLiability,
	"kewajiban":   AccountTypeLiability,
	"hutang":      AccountTypeLiability,
	"utang":       AccountTypeLiability,
	"equity":      AccountTypeEquity,
	"ekuitas":     AccountTypeEquity,
	"modal":       AccountTypeEquity,
	"revenue":     AccountTypeRevenue,
	"income":      AccountTypeRevenue,
	"pendapatan":  AccountTypeRevenue,
	"penjualan":   AccountTypeRevenue,
	"expense":     AccountTypeExpense,
	"beban":       AccountTypeExpense,
	"biaya":       AccountTypeExpense,
	"pengeluaran": AccountTypeExpense,
}

// ErrUnknownAccountType indicates a label outside the alias table.
var ErrUnknownAccountType = errors.New("reports: unknown account type")

// ParseAccountType normalizes a stored type label to its canonical value.
func ParseAccountType(label string) (AccountType, error) {
	if t, ok := accountTypeAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAccountType, label)
}

// NormalSide identifies which side a balance naturally accumulates on.
type NormalSide string

const (
	NormalSideDebit  NormalSide = "DEBIT"
	NormalSideCredit NormalSide = "CREDIT"
)

// NormalSide returns the normal balance side for the account type.
// Asset and Expense accounts net debit-positive; Liability, Equity and
// Revenue accounts net credit-positive.
func (t AccountType) NormalSide() NormalSide {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalSideDebit
	default:
		return NormalSideCredit
	}
}
