package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPostingValidate(t *testing.T) {
	ok := Posting{ID: 1, AccountID: 10, Debit: decimal.NewFromInt(100)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid posting rejected: %v", err)
	}

	both := Posting{ID: 2, AccountID: 10, Debit: decimal.NewFromInt(1), Credit: decimal.NewFromInt(1)}
	if err := both.Validate(); err == nil {
		t.Fatal("posting with both sides should be rejected")
	}

	negative := Posting{ID: 3, AccountID: 10, Debit: decimal.NewFromInt(-5)}
	if err := negative.Validate(); err == nil {
		t.Fatal("negative posting should be rejected")
	}

	// Both sides zero is a legal no-op row.
	noop := Posting{ID: 4, AccountID: 10}
	if err := noop.Validate(); err != nil {
		t.Fatalf("no-op posting rejected: %v", err)
	}
}
