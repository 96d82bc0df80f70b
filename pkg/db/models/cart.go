package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/pkg/enums"
)

// Cart is the single pre-checkout basket of a user.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Status    enums.CartStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem snapshots the unit price at add/update time.
type CartItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID      uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariationID *uuid.UUID      `gorm:"column:variation_id;type:uuid"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	Product     *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
