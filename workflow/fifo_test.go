package workflow_test

import (
	"errors"
	"testing"

	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/haloaquvit/aquvit_backend/utils"
	"github.com/haloaquvit/aquvit_backend/workflow"
	"github.com/shopspring/decimal"
)

func batch(id int, qty, unitCost string) *models.InventoryBatch {
	return &models.InventoryBatch{
		ID:       id,
		Quantity: decimal.RequireFromString(qty),
		UnitCost: decimal.RequireFromString(unitCost),
	}
}

func TestAllocateFIFODrainsOldestFirst(t *testing.T) {
	batches := []*models.InventoryBatch{
		batch(1, "100", "10"),
		batch(2, "50", "12"),
	}

	allocations, totalCost, err := workflow.AllocateFIFO(batches, decimal.RequireFromString("120"))
	if err != nil {
		t.Fatalf("AllocateFIFO: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	if allocations[0].BatchId != 1 || !allocations[0].Quantity.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("first allocation should drain batch 1 fully, got %+v", allocations[0])
	}
	if allocations[1].BatchId != 2 || !allocations[1].Quantity.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("second allocation should take 20 from batch 2, got %+v", allocations[1])
	}
	// 100*10 + 20*12 = 1240
	if !totalCost.Equal(decimal.RequireFromString("1240")) {
		t.Fatalf("expected total cost 1240, got %s", totalCost)
	}
}

func TestAllocateFIFOSingleBatchPartialDrain(t *testing.T) {
	batches := []*models.InventoryBatch{
		batch(7, "100", "10"),
	}

	allocations, totalCost, err := workflow.AllocateFIFO(batches, decimal.RequireFromString("30"))
	if err != nil {
		t.Fatalf("AllocateFIFO: %v", err)
	}
	if len(allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocations))
	}
	if !allocations[0].Quantity.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("expected to take 30, got %s", allocations[0].Quantity)
	}
	if !totalCost.Equal(decimal.RequireFromString("300")) {
		t.Fatalf("expected total cost 300, got %s", totalCost)
	}
}

func TestAllocateFIFOExactDrain(t *testing.T) {
	batches := []*models.InventoryBatch{
		batch(1, "100", "10"),
		batch(2, "50", "12"),
	}

	allocations, totalCost, err := workflow.AllocateFIFO(batches, decimal.RequireFromString("150"))
	if err != nil {
		t.Fatalf("AllocateFIFO: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	if !totalCost.Equal(decimal.RequireFromString("1600")) {
		t.Fatalf("expected total cost 1600, got %s", totalCost)
	}
}

func TestAllocateFIFOSkipsDrainedLayers(t *testing.T) {
	batches := []*models.InventoryBatch{
		batch(1, "0", "10"),
		batch(2, "40", "12"),
	}

	allocations, _, err := workflow.AllocateFIFO(batches, decimal.RequireFromString("10"))
	if err != nil {
		t.Fatalf("AllocateFIFO: %v", err)
	}
	if len(allocations) != 1 || allocations[0].BatchId != 2 {
		t.Fatalf("drained layer must not allocate, got %+v", allocations)
	}
}

func TestAllocateFIFOInsufficientStock(t *testing.T) {
	batches := []*models.InventoryBatch{
		batch(1, "100", "10"),
		batch(2, "50", "12"),
	}

	allocations, _, err := workflow.AllocateFIFO(batches, decimal.RequireFromString("150.0001"))
	if !errors.Is(err, utils.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if allocations != nil {
		t.Fatalf("no allocation may survive a shortfall, got %+v", allocations)
	}
}

func TestAllocateFIFONoBatches(t *testing.T) {
	_, _, err := workflow.AllocateFIFO(nil, decimal.RequireFromString("1"))
	if !errors.Is(err, utils.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestAllocateFIFORejectsNonPositiveQuantity(t *testing.T) {
	batches := []*models.InventoryBatch{batch(1, "10", "5")}
	for _, qty := range []string{"0", "-3"} {
		if _, _, err := workflow.AllocateFIFO(batches, decimal.RequireFromString(qty)); err == nil {
			t.Fatalf("quantity %s must be rejected", qty)
		}
	}
}

func TestAllocateFIFOFractionalQuantities(t *testing.T) {
	batches := []*models.InventoryBatch{
		batch(1, "2.5", "4.4"),
		batch(2, "2.5", "6"),
	}

	_, totalCost, err := workflow.AllocateFIFO(batches, decimal.RequireFromString("3.75"))
	if err != nil {
		t.Fatalf("AllocateFIFO: %v", err)
	}
	// 2.5*4.4 + 1.25*6 = 11 + 7.5 = 18.5
	if !totalCost.Equal(decimal.RequireFromString("18.5")) {
		t.Fatalf("expected total cost 18.5, got %s", totalCost)
	}
}
