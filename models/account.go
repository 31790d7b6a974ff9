package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/haloaquvit/aquvit_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Structural accounts the closing run depends on. Retained Earnings (3200)
// is seeded with the default chart; Income Summary (3300) is created lazily
// on the first closing of a branch.
const (
	SystemCodeRetainedEarnings = "3200"
	SystemCodeIncomeSummary    = "3300"

	NameRetainedEarnings = "Laba Ditahan"
	NameIncomeSummary    = "Ikhtisar Laba Rugi"
)

type Account struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BranchId        int             `gorm:"index:idx_account_branch_code;not null" json:"branch_id"`
	Code            string          `gorm:"index:idx_account_branch_code;size:20;not null" json:"code"`
	Name            string          `gorm:"index;size:100;not null" json:"name" binding:"required"`
	MainType        AccountMainType `gorm:"type:enum('Asset','Liability','Equity','Revenue','Expense');default:'Expense';index;size:10;not null" json:"main_type" binding:"required"`
	NormalBalance   NormalBalance   `gorm:"size:16;not null;default:'DEBIT';index" json:"normal_balance"`
	IsHeader        *bool           `gorm:"not null;default:false" json:"is_header"`
	Balance         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"balance"`
	InitialBalance  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"initial_balance"`
	ParentId        int             `gorm:"index" json:"parent_id"`
	Level           int             `gorm:"not null;default:1" json:"level"`
	SortOrder       int             `gorm:"not null;default:0" json:"sort_order"`
	Description     string          `gorm:"type:text" json:"description"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	IsSystemDefault *bool           `gorm:"not null;default:false" json:"is_system_default"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	BranchId    int             `json:"branch_id" binding:"required"`
	Code        string          `json:"code" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	MainType    AccountMainType `json:"main_type" binding:"required"`
	IsHeader    *bool           `json:"is_header"`
	ParentId    int             `json:"parent_id"`
	Level       int             `json:"level"`
	SortOrder   int             `json:"sort_order"`
	Description string          `json:"description"`
}

// NormalBalanceFor maps an account type to its normal posting side.
func NormalBalanceFor(mainType AccountMainType) NormalBalance {
	switch mainType {
	case AccountMainTypeAsset, AccountMainTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// validate input for both create & update. (id = 0 for create)
func (input *NewAccount) validate(ctx context.Context, id int) error {
	if id > 0 {
		if id == input.ParentId {
			return errors.New("self-parent not allowed")
		}
		if err := utils.ValidateResourceId[Account](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateResourceId[Branch](ctx, input.BranchId); err != nil {
		return errors.New("branch not found")
	}
	// code unique per branch
	count, err := utils.ResourceCountWhere[Account](ctx, "branch_id = ? AND code = ? AND NOT id = ?", input.BranchId, input.Code, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate code")
	}
	if input.ParentId > 0 {
		if err := utils.ValidateResourceId[Account](ctx, input.ParentId); err != nil {
			return errors.New("parent not found")
		}
	}
	return nil
}

func CreateAccount(ctx context.Context, input *NewAccount) (*Account, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	isHeader := input.IsHeader
	if isHeader == nil {
		isHeader = utils.NewFalse()
	}
	level := input.Level
	if level <= 0 {
		level = 1
	}

	account := Account{
		BranchId:        input.BranchId,
		Code:            input.Code,
		Name:            input.Name,
		MainType:        input.MainType,
		NormalBalance:   NormalBalanceFor(input.MainType),
		IsHeader:        isHeader,
		ParentId:        input.ParentId,
		Level:           level,
		SortOrder:       input.SortOrder,
		Description:     input.Description,
		IsActive:        utils.NewTrue(),
		IsSystemDefault: utils.NewFalse(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}

	account.removeListRedis()
	return &account, nil
}

/*
caches:
	AccountList:$branchId
*/

func (account Account) removeListRedis() {
	_ = config.RemoveRedisKey("AccountList:" + fmt.Sprint(account.BranchId))
}

// GetAccounts lists a branch's chart of accounts, redis-cached.
func GetAccounts(ctx context.Context, branchId int) ([]*Account, error) {
	var accounts []*Account
	redisKey := "AccountList:" + fmt.Sprint(branchId)
	exists, err := config.GetRedisObject(redisKey, &accounts)
	if err != nil {
		return nil, err
	}
	if exists {
		return accounts, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).
		Where("branch_id = ?", branchId).
		Order("sort_order ASC, code ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(redisKey, &accounts, 10*time.Minute); err != nil {
		return nil, err
	}
	return accounts, nil
}

// FetchPostableAccountsForUpdate reads the branch's non-header accounts of
// the given types inside tx, locked FOR UPDATE so the balances cannot move
// between the closing read and the closing post.
func FetchPostableAccountsForUpdate(tx *gorm.DB, branchId int, mainTypes ...AccountMainType) ([]*Account, error) {
	var accounts []*Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND main_type IN ? AND is_header = ? AND is_active = ?", branchId, mainTypes, false, true).
		Order("code ASC, id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetOrCreateSystemAccountInTx resolves a structural account by code,
// creating it when the branch does not have one yet.
func GetOrCreateSystemAccountInTx(tx *gorm.DB, branchId int, code string, name string, mainType AccountMainType) (*Account, error) {
	var account Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND code = ?", branchId, code).
		First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = Account{
		BranchId:        branchId,
		Code:            code,
		Name:            name,
		MainType:        mainType,
		NormalBalance:   NormalBalanceFor(mainType),
		IsHeader:        utils.NewFalse(),
		Level:           1,
		IsActive:        utils.NewTrue(),
		IsSystemDefault: utils.NewTrue(),
	}
	if err := tx.Create(&account).Error; err != nil {
		return nil, err
	}
	account.removeListRedis()
	return &account, nil
}

// ApplyPostingInTx moves an account balance by a posted line. Balances are
// stored signed in the account's normal direction, so a debit increases a
// debit-normal account and decreases a credit-normal one.
func ApplyPostingInTx(tx *gorm.DB, account *Account, debit decimal.Decimal, credit decimal.Decimal) error {
	if account.IsHeader != nil && *account.IsHeader {
		return errors.New("cannot post to a header account")
	}

	var delta decimal.Decimal
	if account.NormalBalance == NormalBalanceDebit {
		delta = debit.Sub(credit)
	} else {
		delta = credit.Sub(debit)
	}
	if delta.IsZero() {
		return nil
	}
	if err := tx.Exec("UPDATE accounts SET balance = balance + ? WHERE id = ?", delta, account.ID).Error; err != nil {
		return err
	}
	account.Balance = account.Balance.Add(delta)
	account.removeListRedis()
	return nil
}
