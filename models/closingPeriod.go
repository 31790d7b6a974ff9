package models

import (
	"context"
	"errors"
	"time"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClosingPeriod marks a (branch, year) as closed. Its presence is the sole
// gate against double-closing; voiding a closing deletes the row, which
// reopens the year. The unique index backstops the advisory lock, a racing
// second close fails on insert.
type ClosingPeriod struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BranchId       int             `gorm:"uniqueIndex:idx_closing_branch_year;not null" json:"branch_id"`
	Year           int             `gorm:"uniqueIndex:idx_closing_branch_year;not null" json:"year"`
	JournalEntryId int             `gorm:"index;not null" json:"journal_entry_id"`
	NetIncome      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"net_income"`
	ClosedBy       int             `gorm:"index" json:"closed_by"`
	ClosedByName   string          `gorm:"size:100" json:"closed_by_name"`
	ClosedAt       time.Time       `gorm:"autoCreateTime" json:"closed_at"`
}

// FetchClosingPeriodForUpdate locks the (branch, year) row inside tx.
// Returns (nil, nil) when the year is open.
func FetchClosingPeriodForUpdate(tx *gorm.DB, branchId int, year int) (*ClosingPeriod, error) {
	var period ClosingPeriod
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND year = ?", branchId, year).
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

// GetClosingPeriod reads the (branch, year) marker without locking.
// Returns (nil, nil) when the year is open.
func GetClosingPeriod(ctx context.Context, branchId int, year int) (*ClosingPeriod, error) {
	db := config.GetDB()
	var period ClosingPeriod
	err := db.WithContext(ctx).
		Where("branch_id = ? AND year = ?", branchId, year).
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

// GetClosingPeriods lists a branch's closed years, most recent year first.
func GetClosingPeriods(ctx context.Context, branchId int) ([]*ClosingPeriod, error) {
	db := config.GetDB()
	var periods []*ClosingPeriod
	err := db.WithContext(ctx).
		Where("branch_id = ?", branchId).
		Order("year DESC").
		Find(&periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}
