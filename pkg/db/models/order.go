package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

// Order is the permanent record created at checkout.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber        string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID             uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'awaiting_confirmation'"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	ShippingAddress    types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	BillingAddress     *types.Address      `gorm:"column:billing_address;type:jsonb;serializer:json"`
	Notes              *string             `gorm:"column:notes"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxRate            decimal.Decimal     `gorm:"column:tax_rate;type:numeric(6,4);not null;default:0"`
	Tax                decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	Discount           decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Shipping           decimal.Decimal     `gorm:"column:shipping;type:numeric(12,2);not null;default:0"`
	DeliveryDistance   decimal.Decimal     `gorm:"column:delivery_distance;type:numeric(10,2);not null;default:0"`
	DeliveryCharges    decimal.Decimal     `gorm:"column:delivery_charges;type:numeric(12,2);not null;default:0"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	VehicleID          *uuid.UUID          `gorm:"column:vehicle_id;type:uuid"`
	DeliveryPersonID   *uuid.UUID          `gorm:"column:delivery_person_id;type:uuid;index"`
	DeliveryDriver     *string             `gorm:"column:delivery_driver"`
	RejectionReason    *string             `gorm:"column:rejection_reason"`
	RejectedByUserID   *uuid.UUID          `gorm:"column:rejected_by_user_id;type:uuid"`
	CancellationReason *string             `gorm:"column:cancellation_reason"`
	ApprovedAt         *time.Time          `gorm:"column:approved_at"`
	CompletedAt        *time.Time          `gorm:"column:completed_at"`
	ReceivedAt         *time.Time          `gorm:"column:received_at"`
	RejectedAt         *time.Time          `gorm:"column:rejected_at"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at"`
	Items              []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ChargeableTotal is subtotal + shipping + tax - discount + delivery charges.
func (o Order) ChargeableTotal() decimal.Decimal {
	return o.Subtotal.Add(o.Shipping).Add(o.Tax).Sub(o.Discount).Add(o.DeliveryCharges)
}

// OrderItem is the immutable line snapshot taken at checkout.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariationID *uuid.UUID      `gorm:"column:variation_id;type:uuid"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// OrderNumberSequence is the per-financial-year counter row.
type OrderNumberSequence struct {
	FinancialYear string    `gorm:"column:financial_year;primaryKey"`
	LastValue     int64     `gorm:"column:last_value;not null;default:0"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
