package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Prem931993/buytown-sub000/pkg/enums"
)

// User is the subset of identity the order engine reads.
type User struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Email     *string    `gorm:"column:email;uniqueIndex"`
	Phone     *string    `gorm:"column:phone"`
	Role      enums.Role `gorm:"column:role;type:text;not null;default:'customer'"`
	VehicleID *uuid.UUID `gorm:"column:vehicle_id;type:uuid"`
	IsActive  bool       `gorm:"column:is_active;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
