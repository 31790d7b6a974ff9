package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type JournalEntry struct {
	ID          int               `gorm:"primary_key" json:"id"`
	BranchId    int               `gorm:"index:idx_journal_branch_date;uniqueIndex:idx_journal_branch_number;not null" json:"branch_id"`
	EntryNumber string            `gorm:"uniqueIndex:idx_journal_branch_number;size:50;not null" json:"entry_number"`
	Date        time.Time         `gorm:"index:idx_journal_branch_date;not null" json:"date"`
	Description string            `gorm:"type:text" json:"description"`
	SourceType  JournalSourceType `gorm:"index;size:50;not null" json:"source_type"`
	SourceId    int               `gorm:"index" json:"source_id"`
	IsVoided    *bool             `gorm:"not null;default:false" json:"is_voided"`
	ReversesId  int               `gorm:"index" json:"reverses_id"`
	UserId      int               `gorm:"index" json:"user_id"`
	UserName    string            `gorm:"size:100" json:"user_name"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	Lines []JournalEntryLine `gorm:"foreignKey:JournalEntryId" json:"lines"`
}

type JournalEntryLine struct {
	ID             int             `gorm:"primary_key" json:"id"`
	JournalEntryId int             `gorm:"index;not null" json:"journal_entry_id"`
	AccountId      int             `gorm:"index;not null" json:"account_id"`
	Debit          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"debit"`
	Credit         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"credit"`
	Memo           string          `gorm:"size:255" json:"memo"`
	SortOrder      int             `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// ValidateJournalLines enforces the double-entry constraints: at least one
// line, each line with exactly one positive side, and the debit and credit
// totals equal.
func ValidateJournalLines(lines []JournalEntryLine) error {
	if len(lines) == 0 {
		return errors.New("journal entry must have at least one line")
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return errors.New("journal line amounts cannot be negative")
		}
		hasDebit := line.Debit.IsPositive()
		hasCredit := line.Credit.IsPositive()
		if hasDebit == hasCredit {
			return errors.New("either debit or credit must have value")
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}

	if !totalDebit.Equal(totalCredit) {
		return fmt.Errorf("journal entry is not balanced: debit %s, credit %s",
			totalDebit.String(), totalCredit.String())
	}
	return nil
}

// NextClosingEntryNumber allocates the next JC-<year>-NNNN number for a
// branch inside tx. Numbering is per branch, matching the unique index on
// (branch_id, entry_number). Caller must hold the branch's closing advisory
// lock, the count cannot race.
func NextClosingEntryNumber(tx *gorm.DB, branchId int, year int) (string, error) {
	prefix := fmt.Sprintf("JC-%d-", year)
	var count int64
	err := tx.Model(&JournalEntry{}).
		Where("branch_id = ? AND entry_number LIKE ?", branchId, prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// CreateJournalEntryInTx validates the lines and persists entry + lines.
// It does NOT touch account balances; callers apply postings against the
// accounts they already hold locked.
func CreateJournalEntryInTx(tx *gorm.DB, entry *JournalEntry, lines []JournalEntryLine) (*JournalEntry, error) {
	if err := ValidateJournalLines(lines); err != nil {
		return nil, err
	}

	if entry.IsVoided == nil {
		voided := false
		entry.IsVoided = &voided
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}

	for i := range lines {
		lines[i].JournalEntryId = entry.ID
		lines[i].SortOrder = i
	}
	if err := tx.Create(&lines).Error; err != nil {
		return nil, err
	}
	entry.Lines = lines

	return entry, nil
}

// BuildReversalLines swaps every debit/credit of the original lines.
func BuildReversalLines(lines []JournalEntryLine) []JournalEntryLine {
	reversed := make([]JournalEntryLine, 0, len(lines))
	for _, line := range lines {
		reversed = append(reversed, JournalEntryLine{
			AccountId: line.AccountId,
			Debit:     line.Credit,
			Credit:    line.Debit,
			Memo:      line.Memo,
		})
	}
	return reversed
}

func GetJournalEntry(ctx context.Context, id int) (*JournalEntry, error) {
	db := config.GetDB()
	var entry JournalEntry
	err := db.WithContext(ctx).Preload("Lines").First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetJournalEntries lists a branch's entries newest-first.
func GetJournalEntries(ctx context.Context, branchId int, limit int, offset int) ([]*JournalEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = config.SearchLimit
	}
	db := config.GetDB()
	var entries []*JournalEntry
	err := db.WithContext(ctx).Preload("Lines").
		Where("branch_id = ?", branchId).
		Order("date DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CountPostedEntriesFrom counts non-voided entries dated on or after from,
// excluding one entry id. Used by the closing void guard: a closed year may
// only reopen while nothing has been posted past its year end.
func CountPostedEntriesFrom(tx *gorm.DB, branchId int, from time.Time, excludeEntryId int) (int64, error) {
	var count int64
	err := tx.Model(&JournalEntry{}).
		Where("branch_id = ? AND date >= ? AND is_voided = ? AND id <> ?",
			branchId, from, false, excludeEntryId).
		Count(&count).Error
	return count, err
}
