package models

import (
	"context"
	"time"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/haloaquvit/aquvit_backend/utils"
)

type Branch struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	City      string    `gorm:"size:100" json:"city"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBranch struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewBranch) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Branch](ctx, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Branch](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateBranch(ctx context.Context, input *NewBranch) (*Branch, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	branch := Branch{
		Name:     input.Name,
		Phone:    input.Phone,
		Address:  input.Address,
		City:     input.City,
		IsActive: utils.NewTrue(),
	}

	// db action: a new branch gets the default chart of accounts in the
	// same transaction.
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&branch).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := CreateDefaultAccounts(tx, ctx, branch.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &branch, nil
}

func UpdateBranch(ctx context.Context, id int, input *NewBranch) (*Branch, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	branch, err := utils.FetchSingleModel[Branch](ctx, id)
	if err != nil {
		return nil, err
	}

	branch.Name = input.Name
	branch.Phone = input.Phone
	branch.Address = input.Address
	branch.City = input.City

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(branch).Error; err != nil {
		return nil, err
	}

	return branch, nil
}

func GetBranches(ctx context.Context) ([]*Branch, error) {
	return utils.FetchAllModels[Branch](ctx)
}

func GetBranch(ctx context.Context, id int) (*Branch, error) {
	return utils.FetchSingleModel[Branch](ctx, id)
}
