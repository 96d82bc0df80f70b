package payments

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

// Gateway is one external payment provider.
type Gateway interface {
	Name() enums.PaymentGateway
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	FetchStatus(ctx context.Context, gatewayOrderID string) (*GatewayStatus, error)
	ParseWebhook(ctx context.Context, payload []byte, headers http.Header) (*WebhookEvent, error)
}

// GatewayOrderRequest is what a gateway needs to open a payment.
type GatewayOrderRequest struct {
	Reference   string
	OrderID     uuid.UUID
	OrderNumber string
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Email       string
	Phone       string
}

// GatewayOrder is the gateway's handle for a new payment.
type GatewayOrder struct {
	GatewayOrderID string
	TransactionID  string
	PaymentURL     string
	Status         enums.PaymentAttemptStatus
	Raw            types.JSONMap
}

// GatewayStatus is the polled state of a payment.
type GatewayStatus struct {
	GatewayOrderID string
	TransactionID  string
	Status         enums.PaymentAttemptStatus
	Message        string
	Raw            types.JSONMap
}

// WebhookEvent is a verified gateway push. An empty Status marks an event
// type the engine does not act on.
type WebhookEvent struct {
	EventID        string
	GatewayOrderID string
	TransactionID  string
	Status         enums.PaymentAttemptStatus
	Message        string
	Raw            types.JSONMap
}
