package workflow

import (
	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/haloaquvit/aquvit_backend/utils"
	"github.com/shopspring/decimal"
)

// BatchAllocation is one batch's share of a FIFO consumption.
type BatchAllocation struct {
	BatchId  int             `json:"batch_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Cost     decimal.Decimal `json:"cost"`
}

// AllocateFIFO walks the batches in the given order and drains each by
// min(remaining, still-needed) until quantity is satisfied. Returns the
// per-batch allocations and the strict FIFO weighted total cost.
//
// Pure planning step: the caller is responsible for ordering the batches
// oldest-first and for applying the returned allocations. Returns
// ErrInsufficientStock (and no allocations) when the batches cannot cover
// the requested quantity, so a short list never results in a partial drain.
func AllocateFIFO(batches []*models.InventoryBatch, quantity decimal.Decimal) ([]BatchAllocation, decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return nil, decimal.Zero, utils.ErrInsufficientStock
	}

	available := decimal.Zero
	for _, batch := range batches {
		available = available.Add(batch.Quantity)
	}
	if available.LessThan(quantity) {
		return nil, decimal.Zero, utils.ErrInsufficientStock
	}

	allocations := make([]BatchAllocation, 0, len(batches))
	totalCost := decimal.Zero
	remaining := quantity

	for _, batch := range batches {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(batch.Quantity, remaining)
		if !take.IsPositive() {
			continue
		}
		cost := take.Mul(batch.UnitCost)
		allocations = append(allocations, BatchAllocation{
			BatchId:  batch.ID,
			Quantity: take,
			UnitCost: batch.UnitCost,
			Cost:     cost,
		})
		totalCost = totalCost.Add(cost)
		remaining = remaining.Sub(take)
	}

	return allocations, totalCost, nil
}
