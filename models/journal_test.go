package models_test

import (
	"testing"

	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestValidateJournalLinesAcceptsBalancedEntry(t *testing.T) {
	lines := []models.JournalEntryLine{
		{AccountId: 1, Debit: d("100")},
		{AccountId: 2, Credit: d("40")},
		{AccountId: 3, Credit: d("60")},
	}
	if err := models.ValidateJournalLines(lines); err != nil {
		t.Fatalf("balanced entry rejected: %v", err)
	}
}

func TestValidateJournalLinesRejectsEmptyEntry(t *testing.T) {
	if err := models.ValidateJournalLines(nil); err == nil {
		t.Fatal("empty entry must be rejected")
	}
}

func TestValidateJournalLinesRejectsImbalance(t *testing.T) {
	lines := []models.JournalEntryLine{
		{AccountId: 1, Debit: d("100")},
		{AccountId: 2, Credit: d("99.9999")},
	}
	if err := models.ValidateJournalLines(lines); err == nil {
		t.Fatal("imbalanced entry must be rejected")
	}
}

func TestValidateJournalLinesRejectsTwoSidedLine(t *testing.T) {
	lines := []models.JournalEntryLine{
		{AccountId: 1, Debit: d("50"), Credit: d("50")},
		{AccountId: 2},
	}
	if err := models.ValidateJournalLines(lines); err == nil {
		t.Fatal("a line with both sides set must be rejected")
	}
}

func TestValidateJournalLinesRejectsZeroLine(t *testing.T) {
	lines := []models.JournalEntryLine{
		{AccountId: 1, Debit: d("10")},
		{AccountId: 2},
		{AccountId: 3, Credit: d("10")},
	}
	if err := models.ValidateJournalLines(lines); err == nil {
		t.Fatal("a line with neither side set must be rejected")
	}
}

func TestValidateJournalLinesRejectsNegativeAmounts(t *testing.T) {
	lines := []models.JournalEntryLine{
		{AccountId: 1, Debit: d("-10")},
		{AccountId: 2, Credit: d("-10")},
	}
	if err := models.ValidateJournalLines(lines); err == nil {
		t.Fatal("negative amounts must be rejected")
	}
}

func TestBuildReversalLinesSwapsSides(t *testing.T) {
	original := []models.JournalEntryLine{
		{AccountId: 1, Debit: d("150"), Memo: "Tutup Penjualan ke Ikhtisar Laba Rugi"},
		{AccountId: 2, Credit: d("150"), Memo: "Tutup Pendapatan ke Ikhtisar Laba Rugi"},
	}

	reversed := models.BuildReversalLines(original)

	if len(reversed) != len(original) {
		t.Fatalf("expected %d lines, got %d", len(original), len(reversed))
	}
	if !reversed[0].Credit.Equal(d("150")) || !reversed[0].Debit.IsZero() {
		t.Fatalf("debit line must reverse to credit, got %+v", reversed[0])
	}
	if !reversed[1].Debit.Equal(d("150")) || !reversed[1].Credit.IsZero() {
		t.Fatalf("credit line must reverse to debit, got %+v", reversed[1])
	}
	if reversed[0].Memo != original[0].Memo {
		t.Fatalf("memo must carry over, got %q", reversed[0].Memo)
	}
	// A reversal of a balanced entry stays balanced.
	if err := models.ValidateJournalLines(reversed); err != nil {
		t.Fatalf("reversal out of balance: %v", err)
	}
}

func TestNormalBalanceForAccountTypes(t *testing.T) {
	cases := []struct {
		mainType models.AccountMainType
		want     models.NormalBalance
	}{
		{models.AccountMainTypeAsset, models.NormalBalanceDebit},
		{models.AccountMainTypeExpense, models.NormalBalanceDebit},
		{models.AccountMainTypeLiability, models.NormalBalanceCredit},
		{models.AccountMainTypeEquity, models.NormalBalanceCredit},
		{models.AccountMainTypeRevenue, models.NormalBalanceCredit},
	}
	for _, tc := range cases {
		if got := models.NormalBalanceFor(tc.mainType); got != tc.want {
			t.Fatalf("NormalBalanceFor(%s) = %s, want %s", tc.mainType, got, tc.want)
		}
	}
}
