package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/pkg/enums"
)

// Product carries the stock columns owned by the inventory ledger.
type Product struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name         string              `gorm:"column:name;not null"`
	SKU          string              `gorm:"column:sku;not null;uniqueIndex"`
	Price        decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Stock        int                 `gorm:"column:stock;not null;default:0"`
	HeldQuantity int                 `gorm:"column:held_quantity;not null;default:0"`
	Status       enums.ProductStatus `gorm:"column:status;not null;default:1"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Available returns stock minus held quantity, floored at zero.
func (p Product) Available() int {
	if avail := p.Stock - p.HeldQuantity; avail > 0 {
		return avail
	}
	return 0
}

// ProductVariation overrides the product price. Stock stays on the product.
type ProductVariation struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
