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

type RestoreInput struct {
	ProductId     int                          `json:"product_id" binding:"required"`
	BranchId      int                          `json:"branch_id" binding:"required"`
	Quantity      decimal.Decimal              `json:"quantity" binding:"required"`
	ReferenceId   int                          `json:"reference_id"`
	ReferenceType models.MovementReferenceType `json:"reference_type"`
	Reason        models.MovementReason        `json:"reason"`
	UnitCost      *decimal.Decimal             `json:"unit_cost"`
	Notes         string                       `json:"notes"`
}

type RestoreOutcome struct {
	MovementId int             `json:"movement_id"`
	BatchId    int             `json:"batch_id"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	NewOnHand  decimal.Decimal `json:"new_on_hand"`
}

// RestoreFIFO books incoming stock as a brand-new batch dated now. It never
// re-inflates previously drained batches, so a consume/void/re-consume cycle
// can charge a different cost layer than the original consumption did. That
// approximation is intentional and documented, do not reverse individual
// layers here.
func RestoreFIFO(ctx context.Context, input *RestoreInput) (*RestoreOutcome, error) {
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
		input.Reason = models.MovementReasonRestoration
	}

	db := config.GetDB()
	var outcome *RestoreOutcome
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireStockPostingLock(tx, input.BranchId, input.ProductId); err != nil {
			config.LogError(logger, moduleName, "RestoreFIFO", "acquire stock lock", input, err)
			return err
		}
		defer ReleaseStockPostingLock(tx, input.BranchId, input.ProductId)

		var err error
		outcome, err = restoreInTx(ctx, tx, input)
		if err != nil {
			config.LogError(logger, moduleName, "RestoreFIFO", "restore", input, err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// restoreInTx books the new layer inside the caller's transaction. The
// caller holds the advisory lock for (branch, product).
func restoreInTx(ctx context.Context, tx *gorm.DB, input *RestoreInput) (*RestoreOutcome, error) {

	productStock, err := models.FirstOrCreateProductStock(tx, input.ProductId, input.BranchId)
	if err != nil {
		return nil, err
	}
	previousStock := productStock.Quantity

	unitCost, err := resolveRestoreUnitCost(tx, input)
	if err != nil {
		return nil, err
	}

	batch, err := models.NewBatchInTx(tx, &models.NewInventoryBatch{
		ProductId:  input.ProductId,
		BranchId:   input.BranchId,
		Quantity:   input.Quantity,
		UnitCost:   unitCost,
		SourceType: input.ReferenceType,
		SourceId:   input.ReferenceId,
		Notes:      input.Notes,
	})
	if err != nil {
		return nil, err
	}
	newOnHand := previousStock.Add(input.Quantity)

	batchDetails, err := json.Marshal([]BatchAllocation{{
		BatchId:  batch.ID,
		Quantity: input.Quantity,
		UnitCost: unitCost,
		Cost:     input.Quantity.Mul(unitCost),
	}})
	if err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)

	movement := models.StockMovement{
		ProductId:     input.ProductId,
		BranchId:      input.BranchId,
		Type:          models.MovementTypeIn,
		Reason:        input.Reason,
		Quantity:      input.Quantity,
		PreviousStock: previousStock,
		NewStock:      newOnHand,
		UnitCost:      unitCost,
		TotalCost:     input.Quantity.Mul(unitCost),
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

	return &RestoreOutcome{
		MovementId: movement.ID,
		BatchId:    batch.ID,
		UnitCost:   unitCost,
		NewOnHand:  newOnHand,
	}, nil
}

// resolveRestoreUnitCost prefers the explicit cost, then the cost of the
// most recently received batch, then the product's cost price. A restore
// into a ledger with no history still books the catalog cost, not zero.
func resolveRestoreUnitCost(tx *gorm.DB, input *RestoreInput) (decimal.Decimal, error) {
	if input.UnitCost != nil {
		if input.UnitCost.IsNegative() {
			return decimal.Zero, errors.New("unit cost cannot be negative")
		}
		return *input.UnitCost, nil
	}

	var lastBatch models.InventoryBatch
	err := tx.Where("product_id = ? AND branch_id = ?", input.ProductId, input.BranchId).
		Order("received_at DESC, id DESC").
		First(&lastBatch).Error
	if err == nil {
		return lastBatch.UnitCost, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, err
	}

	var product models.Product
	if err := tx.First(&product, input.ProductId).Error; err != nil {
		return decimal.Zero, err
	}
	return product.CostPrice, nil
}
