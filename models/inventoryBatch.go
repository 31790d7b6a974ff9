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

// InventoryBatch is one cost layer of stock. Quantity is the REMAINING
// quantity; InitialQuantity never changes after creation. Batches are
// drained oldest-first and never deleted, so fully drained layers stay
// behind as history rows with quantity zero.
type InventoryBatch struct {
	ID              int                   `gorm:"primary_key" json:"id"`
	ProductId       int                   `gorm:"index:idx_batch_product_branch;not null" json:"product_id"`
	BranchId        int                   `gorm:"index:idx_batch_product_branch;not null" json:"branch_id"`
	Quantity        decimal.Decimal       `gorm:"type:decimal(20,4);not null;default:0" json:"quantity"`
	InitialQuantity decimal.Decimal       `gorm:"type:decimal(20,4);not null;default:0" json:"initial_quantity"`
	UnitCost        decimal.Decimal       `gorm:"type:decimal(20,4);not null;default:0" json:"unit_cost"`
	ReceivedAt      time.Time             `gorm:"index;not null" json:"received_at"`
	SourceType      MovementReferenceType `gorm:"size:50" json:"source_type"`
	SourceId        int                   `gorm:"index" json:"source_id"`
	Notes           string                `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInventoryBatch struct {
	ProductId  int                   `json:"product_id" binding:"required"`
	BranchId   int                   `json:"branch_id" binding:"required"`
	Quantity   decimal.Decimal       `json:"quantity" binding:"required"`
	UnitCost   decimal.Decimal       `json:"unit_cost"`
	ReceivedAt *time.Time            `json:"received_at"`
	SourceType MovementReferenceType `json:"source_type"`
	SourceId   int                   `json:"source_id"`
	Notes      string                `json:"notes"`
}

// BeforeSave enforces layer invariants.
func (b *InventoryBatch) BeforeSave(tx *gorm.DB) error {
	if b.Quantity.IsNegative() {
		return errors.New("batch quantity cannot be negative")
	}
	if b.UnitCost.IsNegative() {
		return errors.New("batch unit cost cannot be negative")
	}
	if b.Quantity.GreaterThan(b.InitialQuantity) {
		return errors.New("batch quantity cannot exceed initial quantity")
	}
	return nil
}

// NewBatchInTx inserts a cost layer and bumps the stock mirror within the
// caller's transaction.
func NewBatchInTx(tx *gorm.DB, input *NewInventoryBatch) (*InventoryBatch, error) {
	if !input.Quantity.IsPositive() {
		return nil, errors.New("batch quantity must be positive")
	}

	receivedAt := time.Now()
	if input.ReceivedAt != nil {
		receivedAt = *input.ReceivedAt
	}

	batch := InventoryBatch{
		ProductId:       input.ProductId,
		BranchId:        input.BranchId,
		Quantity:        input.Quantity,
		InitialQuantity: input.Quantity,
		UnitCost:        input.UnitCost,
		ReceivedAt:      receivedAt,
		SourceType:      input.SourceType,
		SourceId:        input.SourceId,
		Notes:           input.Notes,
	}
	if err := tx.Create(&batch).Error; err != nil {
		return nil, err
	}

	productStock, err := FirstOrCreateProductStock(tx, input.ProductId, input.BranchId)
	if err != nil {
		return nil, err
	}
	if err := AdjustProductStock(tx, productStock.ID, input.Quantity); err != nil {
		return nil, err
	}

	return &batch, nil
}

// FetchOpenBatchesForUpdate returns the undrained layers of
// (product, branch) in FIFO order, locked FOR UPDATE.
func FetchOpenBatchesForUpdate(tx *gorm.DB, productId int, branchId int) ([]*InventoryBatch, error) {
	var batches []*InventoryBatch
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND branch_id = ? AND quantity > 0", productId, branchId).
		Order("received_at ASC, id ASC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// GetBatches lists the layers of (product, branch) in FIFO order,
// drained layers included when includeEmpty is set.
func GetBatches(ctx context.Context, productId int, branchId int, includeEmpty bool) ([]*InventoryBatch, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ?", productId, branchId)
	if !includeEmpty {
		dbCtx = dbCtx.Where("quantity > 0")
	}
	var batches []*InventoryBatch
	if err := dbCtx.Order("received_at ASC, id ASC").Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

type BatchValuation struct {
	ProductId  int             `json:"product_id"`
	BranchId   int             `json:"branch_id"`
	TotalQty   decimal.Decimal `json:"total_qty"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// GetBatchValuation sums remaining quantity and value over open layers.
func GetBatchValuation(ctx context.Context, productId int, branchId int) (*BatchValuation, error) {
	batches, err := GetBatches(ctx, productId, branchId, false)
	if err != nil {
		return nil, err
	}

	valuation := BatchValuation{
		ProductId:  productId,
		BranchId:   branchId,
		TotalQty:   decimal.Zero,
		TotalValue: decimal.Zero,
	}
	for _, batch := range batches {
		valuation.TotalQty = valuation.TotalQty.Add(batch.Quantity)
		valuation.TotalValue = valuation.TotalValue.Add(batch.Quantity.Mul(batch.UnitCost))
	}
	return &valuation, nil
}

// GetProductStockQty reads the mirror row without locking.
func GetProductStockQty(ctx context.Context, productId int, branchId int) (decimal.Decimal, error) {
	db := config.GetDB()
	var productStock ProductStock
	err := db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ?", productId, branchId).
		First(&productStock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return productStock.Quantity, nil
}
