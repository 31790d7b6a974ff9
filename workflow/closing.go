package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/haloaquvit/aquvit_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ClosingAccountFigure struct {
	AccountId int             `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

type ClosingPreview struct {
	BranchId        int                    `json:"branch_id"`
	Year            int                    `json:"year"`
	TotalRevenue    decimal.Decimal        `json:"total_revenue"`
	TotalExpense    decimal.Decimal        `json:"total_expense"`
	NetIncome       decimal.Decimal        `json:"net_income"`
	RevenueAccounts []ClosingAccountFigure `json:"revenue_accounts"`
	ExpenseAccounts []ClosingAccountFigure `json:"expense_accounts"`
	AlreadyClosed   bool                   `json:"already_closed"`
}

type ClosingOutcome struct {
	JournalEntryId int             `json:"journal_entry_id"`
	EntryNumber    string          `json:"entry_number"`
	NetIncome      decimal.Decimal `json:"net_income"`
}

// BuildClosingFigures splits a branch's postable accounts into the revenue
// and expense figures the closing entry will zero. Headers, inactive
// accounts, and zero balances are skipped; preview and execute both go
// through here so they agree on the set. Balances are signed in the
// account's normal direction, so a contra account carries a negative
// figure here and closes on the opposite side.
func BuildClosingFigures(accounts []*models.Account) (revenues []ClosingAccountFigure, expenses []ClosingAccountFigure, totalRevenue decimal.Decimal, totalExpense decimal.Decimal) {
	totalRevenue = decimal.Zero
	totalExpense = decimal.Zero

	for _, account := range accounts {
		if account.IsHeader != nil && *account.IsHeader {
			continue
		}
		if account.IsActive != nil && !*account.IsActive {
			continue
		}
		if account.Balance.IsZero() {
			continue
		}
		figure := ClosingAccountFigure{
			AccountId: account.ID,
			Code:      account.Code,
			Name:      account.Name,
			Balance:   account.Balance,
		}
		switch account.MainType {
		case models.AccountMainTypeRevenue:
			revenues = append(revenues, figure)
			totalRevenue = totalRevenue.Add(account.Balance)
		case models.AccountMainTypeExpense:
			expenses = append(expenses, figure)
			totalExpense = totalExpense.Add(account.Balance)
		}
	}
	return revenues, expenses, totalRevenue, totalExpense
}

// BuildClosingLines constructs the closing journal: every revenue account is
// closed into Income Summary, every expense account likewise, and the
// resulting Income Summary balance is carried into Retained Earnings.
// Income Summary nets to zero across the whole entry.
func BuildClosingLines(revenues []ClosingAccountFigure, expenses []ClosingAccountFigure, incomeSummaryId int, retainedEarningsId int, year int) []models.JournalEntryLine {

	var lines []models.JournalEntryLine
	totalRevenue := decimal.Zero
	totalExpense := decimal.Zero

	// Close revenue into Income Summary (Dr revenue, Cr Income Summary).
	for _, figure := range revenues {
		line := models.JournalEntryLine{
			AccountId: figure.AccountId,
			Memo:      fmt.Sprintf("Tutup %s ke Ikhtisar Laba Rugi", figure.Name),
		}
		if figure.Balance.IsPositive() {
			line.Debit = figure.Balance
		} else {
			line.Credit = figure.Balance.Abs()
		}
		lines = append(lines, line)
		totalRevenue = totalRevenue.Add(figure.Balance)
	}
	if totalRevenue.IsPositive() {
		lines = append(lines, models.JournalEntryLine{
			AccountId: incomeSummaryId,
			Credit:    totalRevenue,
			Memo:      "Tutup Pendapatan ke Ikhtisar Laba Rugi",
		})
	} else if totalRevenue.IsNegative() {
		lines = append(lines, models.JournalEntryLine{
			AccountId: incomeSummaryId,
			Debit:     totalRevenue.Abs(),
			Memo:      "Tutup Pendapatan ke Ikhtisar Laba Rugi",
		})
	}

	// Close expense into Income Summary (Dr Income Summary, Cr expense).
	for _, figure := range expenses {
		totalExpense = totalExpense.Add(figure.Balance)
	}
	if totalExpense.IsPositive() {
		lines = append(lines, models.JournalEntryLine{
			AccountId: incomeSummaryId,
			Debit:     totalExpense,
			Memo:      "Tutup Beban ke Ikhtisar Laba Rugi",
		})
	} else if totalExpense.IsNegative() {
		lines = append(lines, models.JournalEntryLine{
			AccountId: incomeSummaryId,
			Credit:    totalExpense.Abs(),
			Memo:      "Tutup Beban ke Ikhtisar Laba Rugi",
		})
	}
	for _, figure := range expenses {
		line := models.JournalEntryLine{
			AccountId: figure.AccountId,
			Memo:      fmt.Sprintf("Tutup %s ke Ikhtisar Laba Rugi", figure.Name),
		}
		if figure.Balance.IsPositive() {
			line.Credit = figure.Balance
		} else {
			line.Debit = figure.Balance.Abs()
		}
		lines = append(lines, line)
	}

	// Carry the Income Summary balance into Retained Earnings.
	netIncome := totalRevenue.Sub(totalExpense)
	if netIncome.IsPositive() {
		lines = append(lines,
			models.JournalEntryLine{
				AccountId: incomeSummaryId,
				Debit:     netIncome,
				Memo:      "Tutup Laba Bersih ke Laba Ditahan",
			},
			models.JournalEntryLine{
				AccountId: retainedEarningsId,
				Credit:    netIncome,
				Memo:      fmt.Sprintf("Penerimaan Laba Bersih Tahun %d", year),
			},
		)
	} else if netIncome.IsNegative() {
		loss := netIncome.Abs()
		lines = append(lines,
			models.JournalEntryLine{
				AccountId: retainedEarningsId,
				Debit:     loss,
				Memo:      fmt.Sprintf("Pengurangan akibat Rugi Bersih Tahun %d", year),
			},
			models.JournalEntryLine{
				AccountId: incomeSummaryId,
				Credit:    loss,
				Memo:      "Tutup Rugi Bersih ke Laba Ditahan",
			},
		)
	}

	return lines
}

// PreviewClosingEntry computes the figures the closing entry would post.
// Pure read, callable any number of times.
func PreviewClosingEntry(ctx context.Context, branchId int, year int) (*ClosingPreview, error) {

	if err := utils.ValidateResourceId[models.Branch](ctx, branchId); err != nil {
		return nil, errors.New("branch not found")
	}

	accounts, err := models.GetAccounts(ctx, branchId)
	if err != nil {
		return nil, err
	}
	revenues, expenses, totalRevenue, totalExpense := BuildClosingFigures(accounts)

	period, err := models.GetClosingPeriod(ctx, branchId, year)
	if err != nil {
		return nil, err
	}

	return &ClosingPreview{
		BranchId:        branchId,
		Year:            year,
		TotalRevenue:    totalRevenue,
		TotalExpense:    totalExpense,
		NetIncome:       totalRevenue.Sub(totalExpense),
		RevenueAccounts: revenues,
		ExpenseAccounts: expenses,
		AlreadyClosed:   period != nil,
	}, nil
}

// ExecuteClosingEntry closes a (branch, year): zeroes every revenue and
// expense balance through Income Summary into Retained Earnings, posts the
// journal, and records the ClosingPeriod marker. Balances are re-read under
// lock inside the transaction, a preview taken moments earlier has no
// bearing on what gets posted.
func ExecuteClosingEntry(ctx context.Context, branchId int, year int) (*ClosingOutcome, error) {
	logger := config.GetLogger()

	if err := utils.ValidateResourceId[models.Branch](ctx, branchId); err != nil {
		return nil, errors.New("branch not found")
	}

	db := config.GetDB()
	var outcome *ClosingOutcome
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireClosingLock(tx, branchId); err != nil {
			config.LogError(logger, moduleName, "ExecuteClosingEntry", "acquire closing lock", branchId, err)
			return err
		}
		defer ReleaseClosingLock(tx, branchId)

		period, err := models.FetchClosingPeriodForUpdate(tx, branchId, year)
		if err != nil {
			return err
		}
		if period != nil {
			return utils.ErrAlreadyClosed
		}

		accounts, err := models.FetchPostableAccountsForUpdate(tx, branchId,
			models.AccountMainTypeRevenue, models.AccountMainTypeExpense)
		if err != nil {
			return err
		}
		revenues, expenses, totalRevenue, totalExpense := BuildClosingFigures(accounts)
		netIncome := totalRevenue.Sub(totalExpense)

		if len(revenues) == 0 && len(expenses) == 0 {
			return errors.New("no revenue or expense balances to close")
		}

		incomeSummary, err := models.GetOrCreateSystemAccountInTx(tx, branchId,
			models.SystemCodeIncomeSummary, models.NameIncomeSummary, models.AccountMainTypeEquity)
		if err != nil {
			config.LogError(logger, moduleName, "ExecuteClosingEntry", "resolve income summary", branchId, err)
			return err
		}
		retainedEarnings, err := models.GetOrCreateSystemAccountInTx(tx, branchId,
			models.SystemCodeRetainedEarnings, models.NameRetainedEarnings, models.AccountMainTypeEquity)
		if err != nil {
			config.LogError(logger, moduleName, "ExecuteClosingEntry", "resolve retained earnings", branchId, err)
			return err
		}

		lines := BuildClosingLines(revenues, expenses, incomeSummary.ID, retainedEarnings.ID, year)
		if err := models.ValidateJournalLines(lines); err != nil {
			config.LogError(logger, moduleName, "ExecuteClosingEntry", "closing entry does not balance", branchId, err)
			return utils.ErrClosingImbalance
		}

		entryNumber, err := models.NextClosingEntryNumber(tx, branchId, year)
		if err != nil {
			return err
		}

		userId, _ := utils.GetUserIdFromContext(ctx)
		userName, _ := utils.GetUserNameFromContext(ctx)

		entry := models.JournalEntry{
			BranchId:    branchId,
			EntryNumber: entryNumber,
			Date:        utils.FiscalYearCloseDate(year),
			Description: fmt.Sprintf("Jurnal Penutup Tahun %d", year),
			SourceType:  models.JournalSourceClosing,
			UserId:      userId,
			UserName:    userName,
		}
		if _, err := models.CreateJournalEntryInTx(tx, &entry, lines); err != nil {
			config.LogError(logger, moduleName, "ExecuteClosingEntry", "persist journal", branchId, err)
			return err
		}

		if err := applyLinesToAccounts(tx, entry.Lines, accounts, incomeSummary, retainedEarnings); err != nil {
			config.LogError(logger, moduleName, "ExecuteClosingEntry", "apply postings", branchId, err)
			return err
		}

		closingPeriod := models.ClosingPeriod{
			BranchId:       branchId,
			Year:           year,
			JournalEntryId: entry.ID,
			NetIncome:      netIncome,
			ClosedBy:       userId,
			ClosedByName:   userName,
		}
		if err := tx.Create(&closingPeriod).Error; err != nil {
			if isDuplicateKeyError(err) {
				return utils.ErrAlreadyClosed
			}
			config.LogError(logger, moduleName, "ExecuteClosingEntry", "record closing period", branchId, err)
			return err
		}

		outcome = &ClosingOutcome{
			JournalEntryId: entry.ID,
			EntryNumber:    entryNumber,
			NetIncome:      netIncome,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// VoidClosingEntry reopens a closed (branch, year): posts the exact inverse
// of the closing journal, restores every affected balance, marks the
// original entry voided, and deletes the ClosingPeriod marker. Refused while
// any posted entry exists after the closed year's end, the next year's
// figures would silently build on a retracted retained earnings balance.
func VoidClosingEntry(ctx context.Context, branchId int, year int) error {
	logger := config.GetLogger()

	if err := utils.ValidateResourceId[models.Branch](ctx, branchId); err != nil {
		return errors.New("branch not found")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireClosingLock(tx, branchId); err != nil {
			config.LogError(logger, moduleName, "VoidClosingEntry", "acquire closing lock", branchId, err)
			return err
		}
		defer ReleaseClosingLock(tx, branchId)

		period, err := models.FetchClosingPeriodForUpdate(tx, branchId, year)
		if err != nil {
			return err
		}
		if period == nil {
			return utils.ErrNotClosed
		}

		laterCount, err := models.CountPostedEntriesFrom(tx, branchId,
			time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC), period.JournalEntryId)
		if err != nil {
			return err
		}
		if laterCount > 0 {
			return fmt.Errorf("cannot void closing for %d: posted entries exist in %d or later", year, year+1)
		}

		var original models.JournalEntry
		if err := tx.Preload("Lines").First(&original, period.JournalEntryId).Error; err != nil {
			return err
		}

		reversalLines := models.BuildReversalLines(original.Lines)

		userId, _ := utils.GetUserIdFromContext(ctx)
		userName, _ := utils.GetUserNameFromContext(ctx)

		reversal := models.JournalEntry{
			BranchId:    branchId,
			EntryNumber: original.EntryNumber + "-V",
			Date:        original.Date,
			Description: fmt.Sprintf("Pembatalan Jurnal Penutup Tahun %d", year),
			SourceType:  models.JournalSourceClosing,
			SourceId:    original.ID,
			ReversesId:  original.ID,
			UserId:      userId,
			UserName:    userName,
		}
		if _, err := models.CreateJournalEntryInTx(tx, &reversal, reversalLines); err != nil {
			config.LogError(logger, moduleName, "VoidClosingEntry", "persist reversal journal", branchId, err)
			return err
		}

		if err := applyLinesToAccountsById(tx, reversal.Lines); err != nil {
			config.LogError(logger, moduleName, "VoidClosingEntry", "restore balances", branchId, err)
			return err
		}

		if err := tx.Model(&models.JournalEntry{}).
			Where("id = ?", original.ID).
			Update("is_voided", true).Error; err != nil {
			return err
		}

		return tx.Delete(&models.ClosingPeriod{}, period.ID).Error
	})
}

// ListClosingPeriods returns a branch's closed years.
func ListClosingPeriods(ctx context.Context, branchId int) ([]*models.ClosingPeriod, error) {
	if err := utils.ValidateResourceId[models.Branch](ctx, branchId); err != nil {
		return nil, errors.New("branch not found")
	}
	return models.GetClosingPeriods(ctx, branchId)
}

// applyLinesToAccounts posts each line against the accounts already held
// locked in this transaction.
func applyLinesToAccounts(tx *gorm.DB, lines []models.JournalEntryLine, accounts []*models.Account, extras ...*models.Account) error {
	byId := make(map[int]*models.Account, len(accounts)+len(extras))
	for _, account := range accounts {
		byId[account.ID] = account
	}
	for _, account := range extras {
		byId[account.ID] = account
	}

	for _, line := range lines {
		account, ok := byId[line.AccountId]
		if !ok {
			return fmt.Errorf("posting references unknown account id=%d", line.AccountId)
		}
		if err := models.ApplyPostingInTx(tx, account, line.Debit, line.Credit); err != nil {
			return err
		}
	}
	return nil
}

// applyLinesToAccountsById locks and posts against each line's account.
func applyLinesToAccountsById(tx *gorm.DB, lines []models.JournalEntryLine) error {
	for _, line := range lines {
		var account models.Account
		if err := tx.Clauses(forUpdate()).First(&account, line.AccountId).Error; err != nil {
			return err
		}
		if err := models.ApplyPostingInTx(tx, &account, line.Debit, line.Credit); err != nil {
			return err
		}
	}
	return nil
}
