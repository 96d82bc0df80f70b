package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vehicle holds the delivery charge tier of one vehicle type.
type Vehicle struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name                  string          `gorm:"column:name;not null"`
	BaseCharge            decimal.Decimal `gorm:"column:base_charge;type:numeric(12,2);not null"`
	MaxDistanceKm         decimal.Decimal `gorm:"column:max_distance_km;type:numeric(10,2);not null"`
	AdditionalChargePerKm decimal.Decimal `gorm:"column:additional_charge_per_km;type:numeric(12,2);not null"`
	IsActive              bool            `gorm:"column:is_active;not null"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Tax is a configured tax rate expressed as a fraction.
type Tax struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(6,4);not null"`
	IsActive  bool            `gorm:"column:is_active;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
