package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

// Payment is one gateway attempt for an order.
type Payment struct {
	ID             uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID                  `gorm:"column:order_id;type:uuid;not null;index"`
	Gateway        enums.PaymentGateway       `gorm:"column:gateway;type:text;not null;uniqueIndex:payments_gateway_order_key"`
	GatewayOrderID string                     `gorm:"column:gateway_order_id;not null;uniqueIndex:payments_gateway_order_key"`
	TransactionID  *string                    `gorm:"column:transaction_id"`
	Amount         decimal.Decimal            `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency       string                     `gorm:"column:currency;not null"`
	Status         enums.PaymentAttemptStatus `gorm:"column:status;type:text;not null;default:'created'"`
	PaymentURL     *string                    `gorm:"column:payment_url"`
	FailureReason  *string                    `gorm:"column:failure_reason"`
	Events         []PaymentEvent             `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// PaymentEvent is the append-only audit of gateway responses.
type PaymentEvent struct {
	ID        uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	PaymentID uuid.UUID                  `gorm:"column:payment_id;type:uuid;not null;index"`
	Source    string                     `gorm:"column:source;not null"`
	Status    enums.PaymentAttemptStatus `gorm:"column:status;type:text;not null"`
	Applied   bool                       `gorm:"column:applied;not null;default:false"`
	Raw       types.JSONMap              `gorm:"column:raw;type:jsonb;serializer:json"`
	CreatedAt time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

// PaymentEvent sources.
const (
	PaymentEventSourceCreate  = "create"
	PaymentEventSourcePoll    = "poll"
	PaymentEventSourceWebhook = "webhook"
)
