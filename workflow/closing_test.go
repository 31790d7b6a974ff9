package workflow_test

import (
	"math/rand"
	"testing"

	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/haloaquvit/aquvit_backend/utils"
	"github.com/haloaquvit/aquvit_backend/workflow"
	"github.com/shopspring/decimal"
)

const (
	incomeSummaryId    = 91
	retainedEarningsId = 92
)

func nominalAccount(id int, code, name string, mainType models.AccountMainType, balance string) *models.Account {
	return &models.Account{
		ID:            id,
		Code:          code,
		Name:          name,
		MainType:      mainType,
		NormalBalance: models.NormalBalanceFor(mainType),
		IsHeader:      utils.NewFalse(),
		Balance:       decimal.RequireFromString(balance),
	}
}

func sumSides(lines []models.JournalEntryLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

func accountNet(lines []models.JournalEntryLine, accountId int) decimal.Decimal {
	net := decimal.Zero
	for _, line := range lines {
		if line.AccountId == accountId {
			net = net.Add(line.Debit).Sub(line.Credit)
		}
	}
	return net
}

func TestBuildClosingFiguresSplitsNominalAccounts(t *testing.T) {
	accounts := []*models.Account{
		nominalAccount(1, "4100", "Penjualan", models.AccountMainTypeRevenue, "500000"),
		nominalAccount(2, "5100", "Harga Pokok Penjualan", models.AccountMainTypeExpense, "350000"),
		nominalAccount(3, "1100", "Kas", models.AccountMainTypeAsset, "999999"),
		nominalAccount(4, "4200", "Pendapatan Lain", models.AccountMainTypeRevenue, "0"),
	}
	// Header rows never close, whatever their type.
	header := nominalAccount(5, "4000", "Pendapatan", models.AccountMainTypeRevenue, "42")
	header.IsHeader = utils.NewTrue()
	accounts = append(accounts, header)

	revenues, expenses, totalRevenue, totalExpense := workflow.BuildClosingFigures(accounts)

	if len(revenues) != 1 || revenues[0].AccountId != 1 {
		t.Fatalf("expected only the posted revenue account, got %+v", revenues)
	}
	if len(expenses) != 1 || expenses[0].AccountId != 2 {
		t.Fatalf("expected only the posted expense account, got %+v", expenses)
	}
	if !totalRevenue.Equal(decimal.RequireFromString("500000")) {
		t.Fatalf("total revenue = %s, want 500000", totalRevenue)
	}
	if !totalExpense.Equal(decimal.RequireFromString("350000")) {
		t.Fatalf("total expense = %s, want 350000", totalExpense)
	}
}

func TestBuildClosingFiguresSkipsInactiveAccounts(t *testing.T) {
	// A deactivated nominal account keeps its balance but never closes, so
	// it must not inflate the previewed net income either.
	inactive := nominalAccount(1, "4900", "Pendapatan Nonaktif", models.AccountMainTypeRevenue, "500000")
	inactive.IsActive = utils.NewFalse()
	accounts := []*models.Account{
		inactive,
		nominalAccount(2, "4100", "Penjualan", models.AccountMainTypeRevenue, "200000"),
		nominalAccount(3, "5100", "Beban Gaji", models.AccountMainTypeExpense, "80000"),
	}

	revenues, expenses, totalRevenue, totalExpense := workflow.BuildClosingFigures(accounts)

	if len(revenues) != 1 || revenues[0].AccountId != 2 {
		t.Fatalf("inactive account leaked into closing figures: %+v", revenues)
	}
	if !totalRevenue.Equal(decimal.RequireFromString("200000")) {
		t.Fatalf("total revenue = %s, want 200000", totalRevenue)
	}
	if len(expenses) != 1 || !totalExpense.Equal(decimal.RequireFromString("80000")) {
		t.Fatalf("expense figures = %+v total %s, want only 5100 with 80000", expenses, totalExpense)
	}
}

func TestBuildClosingLinesProfitYear(t *testing.T) {
	revenues := []workflow.ClosingAccountFigure{
		{AccountId: 1, Code: "4100", Name: "Penjualan", Balance: decimal.RequireFromString("500000")},
	}
	expenses := []workflow.ClosingAccountFigure{
		{AccountId: 2, Code: "5100", Name: "Harga Pokok Penjualan", Balance: decimal.RequireFromString("350000")},
	}

	lines := workflow.BuildClosingLines(revenues, expenses, incomeSummaryId, retainedEarningsId, 2025)

	if err := models.ValidateJournalLines(lines); err != nil {
		t.Fatalf("closing entry must balance: %v", err)
	}
	if net := accountNet(lines, incomeSummaryId); !net.IsZero() {
		t.Fatalf("income summary must net to zero, got %s", net)
	}
	// Profit lands on the credit side of retained earnings.
	if net := accountNet(lines, retainedEarningsId); !net.Equal(decimal.RequireFromString("-150000")) {
		t.Fatalf("retained earnings net = %s, want credit 150000", net)
	}
	// Revenue closes with a debit equal to its balance.
	if net := accountNet(lines, 1); !net.Equal(decimal.RequireFromString("500000")) {
		t.Fatalf("revenue close net = %s, want debit 500000", net)
	}
	// Expense closes with a credit equal to its balance.
	if net := accountNet(lines, 2); !net.Equal(decimal.RequireFromString("-350000")) {
		t.Fatalf("expense close net = %s, want credit 350000", net)
	}
}

func TestBuildClosingLinesLossYear(t *testing.T) {
	revenues := []workflow.ClosingAccountFigure{
		{AccountId: 1, Name: "Penjualan", Balance: decimal.RequireFromString("100000")},
	}
	expenses := []workflow.ClosingAccountFigure{
		{AccountId: 2, Name: "Beban Gaji", Balance: decimal.RequireFromString("130000")},
	}

	lines := workflow.BuildClosingLines(revenues, expenses, incomeSummaryId, retainedEarningsId, 2025)

	if err := models.ValidateJournalLines(lines); err != nil {
		t.Fatalf("closing entry must balance: %v", err)
	}
	if net := accountNet(lines, incomeSummaryId); !net.IsZero() {
		t.Fatalf("income summary must net to zero, got %s", net)
	}
	// A loss debits retained earnings.
	if net := accountNet(lines, retainedEarningsId); !net.Equal(decimal.RequireFromString("30000")) {
		t.Fatalf("retained earnings net = %s, want debit 30000", net)
	}
}

func TestBuildClosingLinesContraAccountsCloseOppositeSide(t *testing.T) {
	// Sales returns carry a negative signed balance and must close with a
	// credit instead of a debit.
	revenues := []workflow.ClosingAccountFigure{
		{AccountId: 1, Name: "Penjualan", Balance: decimal.RequireFromString("200000")},
		{AccountId: 3, Name: "Retur Penjualan", Balance: decimal.RequireFromString("-20000")},
	}
	expenses := []workflow.ClosingAccountFigure{
		{AccountId: 2, Name: "Beban Operasional", Balance: decimal.RequireFromString("80000")},
	}

	lines := workflow.BuildClosingLines(revenues, expenses, incomeSummaryId, retainedEarningsId, 2025)

	if err := models.ValidateJournalLines(lines); err != nil {
		t.Fatalf("closing entry must balance: %v", err)
	}
	if net := accountNet(lines, 3); !net.Equal(decimal.RequireFromString("-20000")) {
		t.Fatalf("contra revenue close net = %s, want credit 20000", net)
	}
	// Net income 200000-20000-80000 = 100000 to retained earnings.
	if net := accountNet(lines, retainedEarningsId); !net.Equal(decimal.RequireFromString("-100000")) {
		t.Fatalf("retained earnings net = %s, want credit 100000", net)
	}
}

func TestBuildClosingLinesBreakEvenYearSkipsRetainedEarnings(t *testing.T) {
	revenues := []workflow.ClosingAccountFigure{
		{AccountId: 1, Name: "Penjualan", Balance: decimal.RequireFromString("75000")},
	}
	expenses := []workflow.ClosingAccountFigure{
		{AccountId: 2, Name: "Beban Gaji", Balance: decimal.RequireFromString("75000")},
	}

	lines := workflow.BuildClosingLines(revenues, expenses, incomeSummaryId, retainedEarningsId, 2025)

	if err := models.ValidateJournalLines(lines); err != nil {
		t.Fatalf("closing entry must balance: %v", err)
	}
	for _, line := range lines {
		if line.AccountId == retainedEarningsId {
			t.Fatalf("break-even year must not touch retained earnings: %+v", line)
		}
	}
}

func TestBuildClosingLinesRandomizedBalances(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		var revenues, expenses []workflow.ClosingAccountFigure
		nextId := 100
		for j := 0; j < 1+rng.Intn(5); j++ {
			revenues = append(revenues, workflow.ClosingAccountFigure{
				AccountId: nextId,
				Balance:   decimal.NewFromInt(int64(rng.Intn(2000001) - 1000000)).Div(decimal.NewFromInt(100)),
			})
			nextId++
		}
		for j := 0; j < 1+rng.Intn(5); j++ {
			expenses = append(expenses, workflow.ClosingAccountFigure{
				AccountId: nextId,
				Balance:   decimal.NewFromInt(int64(rng.Intn(2000001) - 1000000)).Div(decimal.NewFromInt(100)),
			})
			nextId++
		}

		lines := workflow.BuildClosingLines(revenues, expenses, incomeSummaryId, retainedEarningsId, 2025)
		if len(lines) == 0 {
			continue
		}
		debit, credit := sumSides(lines)
		if !debit.Equal(credit) {
			t.Fatalf("iteration %d: entry out of balance: debit=%s credit=%s", i, debit, credit)
		}
		if net := accountNet(lines, incomeSummaryId); !net.IsZero() {
			t.Fatalf("iteration %d: income summary nets %s, want zero", i, net)
		}
	}
}
