package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/haloaquvit/aquvit_backend/utils"
	"gorm.io/gorm"
)

type VoidMovementOutcome struct {
	ReversalMovementId int `json:"reversal_movement_id"`
}

// VoidMovement applies the exact inverse of a recorded movement (a
// restoration for an OUT, a consumption for an IN) and removes the original
// row only after the inverse landed. The compensating movement keeps the
// audit trail; the delete never runs first.
func VoidMovement(ctx context.Context, movementId int) (*VoidMovementOutcome, error) {
	logger := config.GetLogger()

	db := config.GetDB()
	var reversalMovementId int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var movement models.StockMovement
		if err := tx.First(&movement, movementId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		if err := AcquireStockPostingLock(tx, movement.BranchId, movement.ProductId); err != nil {
			config.LogError(logger, moduleName, "VoidMovement", "acquire stock lock", movementId, err)
			return err
		}
		defer ReleaseStockPostingLock(tx, movement.BranchId, movement.ProductId)

		switch movement.Type {
		case models.MovementTypeOut:
			outcome, err := restoreInTx(ctx, tx, &RestoreInput{
				ProductId:     movement.ProductId,
				BranchId:      movement.BranchId,
				Quantity:      movement.Quantity,
				ReferenceId:   movement.ID,
				ReferenceType: models.MovementReferenceMovement,
				Reason:        models.MovementReasonVoidReversal,
				UnitCost:      &movement.UnitCost,
				Notes:         fmt.Sprintf("void of movement #%d", movement.ID),
			})
			if err != nil {
				config.LogError(logger, moduleName, "VoidMovement", "apply inverse restore", movementId, err)
				return err
			}
			reversalMovementId = outcome.MovementId

		case models.MovementTypeIn:
			outcome, err := consumeInTx(ctx, tx, &ConsumeInput{
				ProductId:     movement.ProductId,
				BranchId:      movement.BranchId,
				Quantity:      movement.Quantity,
				ReferenceId:   movement.ID,
				ReferenceType: models.MovementReferenceMovement,
				Reason:        models.MovementReasonVoidReversal,
				Notes:         fmt.Sprintf("void of movement #%d", movement.ID),
			})
			if err != nil {
				if !errors.Is(err, utils.ErrInsufficientStock) {
					config.LogError(logger, moduleName, "VoidMovement", "apply inverse consume", movementId, err)
				}
				return err
			}
			reversalMovementId = outcome.MovementId

		default:
			return errors.New("invalid movement type")
		}

		if err := tx.Delete(&models.StockMovement{}, movement.ID).Error; err != nil {
			config.LogError(logger, moduleName, "VoidMovement", "delete original", movementId, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &VoidMovementOutcome{ReversalMovementId: reversalMovementId}, nil
}
