package models

import (
	"context"
	"errors"
	"time"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/haloaquvit/aquvit_backend/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Sku         string          `gorm:"index;size:100;not null" json:"sku" binding:"required"`
	Name        string          `gorm:"index;size:200;not null" json:"name" binding:"required"`
	Unit        string          `gorm:"size:50" json:"unit"`
	SalesPrice  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"sales_price"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cost_price"`
	MinStock    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"min_stock"`
	IsMaterial  *bool           `gorm:"not null;default:false" json:"is_material"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Sku         string          `json:"sku" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Unit        string          `json:"unit"`
	SalesPrice  decimal.Decimal `json:"sales_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	MinStock    decimal.Decimal `json:"min_stock"`
	IsMaterial  *bool           `json:"is_material"`
	Description string          `json:"description"`
}

func (input *NewProduct) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Product](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Product](ctx, "sku", input.Sku, id); err != nil {
		return err
	}
	if input.SalesPrice.IsNegative() || input.CostPrice.IsNegative() || input.MinStock.IsNegative() {
		return errors.New("prices and minimum stock cannot be negative")
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	isMaterial := input.IsMaterial
	if isMaterial == nil {
		isMaterial = utils.NewFalse()
	}

	product := Product{
		Sku:         input.Sku,
		Name:        input.Name,
		Unit:        input.Unit,
		SalesPrice:  input.SalesPrice,
		CostPrice:   input.CostPrice,
		MinStock:    input.MinStock,
		IsMaterial:  isMaterial,
		IsActive:    utils.NewTrue(),
		Description: input.Description,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}

	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchSingleModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	product.Sku = input.Sku
	product.Name = input.Name
	product.Unit = input.Unit
	product.SalesPrice = input.SalesPrice
	product.CostPrice = input.CostPrice
	product.MinStock = input.MinStock
	product.Description = input.Description
	if input.IsMaterial != nil {
		product.IsMaterial = input.IsMaterial
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}

	return product, nil
}

func GetProducts(ctx context.Context) ([]*Product, error) {
	return utils.FetchAllModels[Product](ctx)
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchSingleModel[Product](ctx, id)
}
