package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductStock is the denormalized on-hand quantity per (product, branch).
// It mirrors the sum of remaining batch quantities and is updated in the
// same transaction as every batch mutation.
type ProductStock struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ProductId int             `gorm:"uniqueIndex:idx_product_branch;not null" json:"product_id"`
	BranchId  int             `gorm:"uniqueIndex:idx_product_branch;not null" json:"branch_id"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// FirstOrCreateProductStock locks the mirror row (FOR UPDATE) so concurrent
// consumers of the same (product, branch) serialize on it.
func FirstOrCreateProductStock(tx *gorm.DB, productId int, branchId int) (*ProductStock, error) {
	productStock := ProductStock{
		ProductId: productId,
		BranchId:  branchId,
	}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND branch_id = ?", productId, branchId).
		FirstOrCreate(&productStock)
	if result.Error != nil {
		return nil, result.Error
	}
	return &productStock, nil
}

// AdjustProductStock adds delta (negative to consume) to the mirror row.
// Caller must hold the row lock from FirstOrCreateProductStock.
func AdjustProductStock(tx *gorm.DB, id int, delta decimal.Decimal) error {
	return tx.Exec("UPDATE product_stocks SET quantity = quantity + ? WHERE id = ?", delta, id).Error
}
