package workflow

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/haloaquvit/aquvit_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const moduleName = "workflow"

type ConsumeInput struct {
	ProductId     int                          `json:"product_id" binding:"required"`
	BranchId      int                          `json:"branch_id" binding:"required"`
	Quantity      decimal.Decimal              `json:"quantity" binding:"required"`
	ReferenceId   int                          `json:"reference_id"`
	ReferenceType models.MovementReferenceType `json:"reference_type"`
	Reason        models.MovementReason        `json:"reason"`
	Notes         string                       `json:"notes"`
}

type ConsumeOutcome struct {
	MovementId      int               `json:"movement_id"`
	ConsumedBatches []BatchAllocation `json:"consumed_batches"`
	TotalCost       decimal.Decimal   `json:"total_cost"`
	UnitCost        decimal.Decimal   `json:"unit_cost"`
	NewOnHand       decimal.Decimal   `json:"new_on_hand"`
}

// ConsumeFIFO drains the oldest batches of (product, branch) to cover the
// requested quantity and appends one OUT movement carrying the FIFO cost.
// All-or-nothing: on ErrInsufficientStock no batch is touched.
func ConsumeFIFO(ctx context.Context, input *ConsumeInput) (*ConsumeOutcome, error) {
	logger := config.GetLogger()

	if !input.Quantity.IsPositive() {
		return nil, errors.New("quantity must be positive")
	}
	if err := utils.ValidateResourceId[models.Product](ctx, input.ProductId); err != nil {
		return nil, errors.New("product not found")
	}
	if err := utils.ValidateResourceId[models.Branch](ctx, input.BranchId); err != nil {
		return nil, errors.New("branch not found")
	}
	if input.Reason == "" {
		input.Reason = models.MovementReasonProductionConsumption
	}

	db := config.GetDB()
	var outcome *ConsumeOutcome
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireStockPostingLock(tx, input.BranchId, input.ProductId); err != nil {
			config.LogError(logger, moduleName, "ConsumeFIFO", "acquire stock lock", input, err)
			return err
		}
		defer ReleaseStockPostingLock(tx, input.BranchId, input.ProductId)

		var err error
		outcome, err = consumeInTx(ctx, tx, input)
		if err != nil && !errors.Is(err, utils.ErrInsufficientStock) {
			config.LogError(logger, moduleName, "ConsumeFIFO", "consume", input, err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// consumeInTx performs the drain inside the caller's transaction. The caller
// holds the advisory lock for (branch, product).
func consumeInTx(ctx context.Context, tx *gorm.DB, input *ConsumeInput) (*ConsumeOutcome, error) {

	productStock, err := models.FirstOrCreateProductStock(tx, input.ProductId, input.BranchId)
	if err != nil {
		return nil, err
	}
	previousStock := productStock.Quantity

	batches, err := models.FetchOpenBatchesForUpdate(tx, input.ProductId, input.BranchId)
	if err != nil {
		return nil, err
	}

	// Mirror drift (positive mirror, no layers) falls out of the allocation:
	// zero batches can never cover a positive quantity.
	allocations, totalCost, err := AllocateFIFO(batches, input.Quantity)
	if err != nil {
		return nil, err
	}

	for _, alloc := range allocations {
		res := tx.Exec("UPDATE inventory_batches SET quantity = quantity - ? WHERE id = ? AND quantity >= ?",
			alloc.Quantity, alloc.BatchId, alloc.Quantity)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected != 1 {
			return nil, utils.ErrInsufficientStock
		}
	}

	if err := models.AdjustProductStock(tx, productStock.ID, input.Quantity.Neg()); err != nil {
		return nil, err
	}
	newOnHand := previousStock.Sub(input.Quantity)

	batchDetails, err := json.Marshal(allocations)
	if err != nil {
		return nil, err
	}

	unitCost := totalCost.DivRound(input.Quantity, 4)

	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)

	movement := models.StockMovement{
		ProductId:     input.ProductId,
		BranchId:      input.BranchId,
		Type:          models.MovementTypeOut,
		Reason:        input.Reason,
		Quantity:      input.Quantity,
		PreviousStock: previousStock,
		NewStock:      newOnHand,
		UnitCost:      unitCost,
		TotalCost:     totalCost,
		ReferenceId:   input.ReferenceId,
		ReferenceType: input.ReferenceType,
		BatchDetails:  batchDetails,
		UserId:        userId,
		UserName:      userName,
		Notes:         input.Notes,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}

	return &ConsumeOutcome{
		MovementId:      movement.ID,
		ConsumedBatches: allocations,
		TotalCost:       totalCost,
		UnitCost:        unitCost,
		NewOnHand:       newOnHand,
	}, nil
}
