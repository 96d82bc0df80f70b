package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/Prem931993/buytown-sub000/internal/cart"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/pagination"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

type orderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariationID *uuid.UUID      `json:"variation_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type orderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	UserID             uuid.UUID           `json:"user_id"`
	Status             enums.OrderStatus   `json:"status"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method"`
	ShippingAddress    types.Address       `json:"shipping_address"`
	BillingAddress     *types.Address      `json:"billing_address,omitempty"`
	Notes              *string             `json:"notes,omitempty"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	TaxRate            decimal.Decimal     `json:"tax_rate"`
	Tax                decimal.Decimal     `json:"tax"`
	Discount           decimal.Decimal     `json:"discount"`
	Shipping           decimal.Decimal     `json:"shipping"`
	DeliveryDistance   decimal.Decimal     `json:"delivery_distance"`
	DeliveryCharges    decimal.Decimal     `json:"delivery_charges"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	VehicleID          *uuid.UUID          `json:"vehicle_id,omitempty"`
	DeliveryPersonID   *uuid.UUID          `json:"delivery_person_id,omitempty"`
	DeliveryDriver     *string             `json:"delivery_driver,omitempty"`
	RejectionReason    *string             `json:"rejection_reason,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	ApprovedAt         *time.Time          `json:"approved_at,omitempty"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
	ReceivedAt         *time.Time          `json:"received_at,omitempty"`
	RejectedAt         *time.Time          `json:"rejected_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	Items              []orderItemResponse `json:"items"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func newOrderResponse(o *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return orderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		UserID:             o.UserID,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		PaymentMethod:      o.PaymentMethod,
		ShippingAddress:    o.ShippingAddress,
		BillingAddress:     o.BillingAddress,
		Notes:              o.Notes,
		Subtotal:           o.Subtotal,
		TaxRate:            o.TaxRate,
		Tax:                o.Tax,
		Discount:           o.Discount,
		Shipping:           o.Shipping,
		DeliveryDistance:   o.DeliveryDistance,
		DeliveryCharges:    o.DeliveryCharges,
		TotalAmount:        o.TotalAmount,
		VehicleID:          o.VehicleID,
		DeliveryPersonID:   o.DeliveryPersonID,
		DeliveryDriver:     o.DeliveryDriver,
		RejectionReason:    o.RejectionReason,
		CancellationReason: o.CancellationReason,
		ApprovedAt:         o.ApprovedAt,
		CompletedAt:        o.CompletedAt,
		ReceivedAt:         o.ReceivedAt,
		RejectedAt:         o.RejectedAt,
		CancelledAt:        o.CancelledAt,
		Items:              items,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func newOrderPage(page *pagination.Page[models.Order]) pagination.Page[orderResponse] {
	out := pagination.Page[orderResponse]{Items: make([]orderResponse, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, newOrderResponse(&page.Items[i]))
	}
	return out
}

type cartItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	VariationID *uuid.UUID      `json:"variation_id,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

func newCartItemResponse(item *models.CartItem) cartItemResponse {
	resp := cartItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		VariationID: item.VariationID,
		Quantity:    item.Quantity,
		Price:       item.Price,
		TotalPrice:  item.TotalPrice,
	}
	if item.Product != nil {
		resp.ProductName = item.Product.Name
	}
	return resp
}

type cartResponse struct {
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	TaxRate   decimal.Decimal    `json:"tax_rate"`
	Tax       decimal.Decimal    `json:"tax"`
	Discount  decimal.Decimal    `json:"discount"`
	Shipping  decimal.Decimal    `json:"shipping"`
	Total     decimal.Decimal    `json:"total"`
}

func newCartResponse(summary *cartsvc.Summary) cartResponse {
	items := make([]cartItemResponse, 0, len(summary.Items))
	for i := range summary.Items {
		items = append(items, newCartItemResponse(&summary.Items[i]))
	}
	return cartResponse{
		Items:     items,
		ItemCount: summary.ItemCount,
		Subtotal:  summary.Subtotal,
		TaxRate:   summary.TaxRate,
		Tax:       summary.Tax,
		Discount:  summary.Discount,
		Shipping:  summary.Shipping,
		Total:     summary.Total,
	}
}
