package models

import (
	"context"
	"errors"
	"time"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/haloaquvit/aquvit_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StockMovement is the append-only audit log of on-hand changes. One row per
// consume/restore, carrying the before/after mirror snapshot and the FIFO
// cost charged.
type StockMovement struct {
	ID            int                   `gorm:"primary_key" json:"id"`
	ProductId     int                   `gorm:"index:idx_movement_product_branch;not null" json:"product_id"`
	BranchId      int                   `gorm:"index:idx_movement_product_branch;not null" json:"branch_id"`
	Type          MovementType          `gorm:"type:enum('IN','OUT');not null" json:"type"`
	Reason        MovementReason        `gorm:"size:50;not null" json:"reason"`
	Quantity      decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"quantity"`
	PreviousStock decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"previous_stock"`
	NewStock      decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"new_stock"`
	UnitCost      decimal.Decimal       `gorm:"type:decimal(20,4);not null;default:0" json:"unit_cost"`
	TotalCost     decimal.Decimal       `gorm:"type:decimal(20,4);not null;default:0" json:"total_cost"`
	ReferenceId   int                   `gorm:"index" json:"reference_id"`
	ReferenceType MovementReferenceType `gorm:"size:50" json:"reference_type"`
	BatchDetails  datatypes.JSON        `json:"batch_details"`
	UserId        int                   `gorm:"index" json:"user_id"`
	UserName      string                `gorm:"size:100" json:"user_name"`
	Notes         string                `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time             `gorm:"autoCreateTime;index" json:"created_at"`
}

// BeforeSave enforces the snapshot invariant: the quantity is always
// positive (direction lives in Type) and NewStock must equal PreviousStock
// adjusted by it.
func (m *StockMovement) BeforeSave(tx *gorm.DB) error {
	if !m.Quantity.IsPositive() {
		return errors.New("movement quantity must be positive")
	}
	var expected decimal.Decimal
	switch m.Type {
	case MovementTypeIn:
		expected = m.PreviousStock.Add(m.Quantity)
	case MovementTypeOut:
		expected = m.PreviousStock.Sub(m.Quantity)
	default:
		return errors.New("invalid movement type")
	}
	if !m.NewStock.Equal(expected) {
		return errors.New("movement stock snapshot does not reconcile")
	}
	return nil
}

type MovementFilter struct {
	ProductId int
	BranchId  int
	Type      MovementType
	Reason    MovementReason
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}

func movementQuery(ctx context.Context, filter *MovementFilter) *gorm.DB {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&StockMovement{})
	if filter.ProductId > 0 {
		dbCtx = dbCtx.Where("product_id = ?", filter.ProductId)
	}
	if filter.BranchId > 0 {
		dbCtx = dbCtx.Where("branch_id = ?", filter.BranchId)
	}
	if filter.Type != "" {
		dbCtx = dbCtx.Where("type = ?", filter.Type)
	}
	if filter.Reason != "" {
		dbCtx = dbCtx.Where("reason = ?", filter.Reason)
	}
	if filter.FromDate != nil {
		dbCtx = dbCtx.Where("created_at >= ?", filter.FromDate)
	}
	if filter.ToDate != nil {
		dbCtx = dbCtx.Where("created_at <= ?", filter.ToDate)
	}
	return dbCtx
}

// GetStockMovements lists movements newest-first with optional filters.
func GetStockMovements(ctx context.Context, filter *MovementFilter) ([]*StockMovement, int64, error) {
	dbCtx := movementQuery(ctx, filter)

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = config.SearchLimit
	}

	var movements []*StockMovement
	err := dbCtx.Order("created_at DESC, id DESC").
		Limit(limit).Offset(filter.Offset).
		Find(&movements).Error
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

func GetStockMovement(ctx context.Context, id int) (*StockMovement, error) {
	db := config.GetDB()
	var movement StockMovement
	if err := db.WithContext(ctx).First(&movement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &movement, nil
}
