package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

// Checkout session events handled by the order engine.
const (
	EventCheckoutSessionCompleted             = "checkout.session.completed"
	EventCheckoutSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutSessionAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventCheckoutSessionExpired               = "checkout.session.expired"
)

type sessionAPI interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
	Retrieve(ctx context.Context, id string, params *stripe.CheckoutSessionRetrieveParams) (*stripe.CheckoutSession, error)
}

// CheckoutRequest describes one hosted checkout for an order total.
type CheckoutRequest struct {
	ClientReferenceID string
	Description       string
	AmountMinor       int64
	Currency          string
	CustomerEmail     string
	Metadata          map[string]string
}

// ToMinorUnits converts a two-decimal currency amount to its smallest unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreateCheckoutSession opens a payment-mode checkout session for a single
// line covering the order total.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*stripe.CheckoutSession, error) {
	if c == nil || c.sessions == nil {
		return nil, errors.New("stripe client not configured")
	}
	if req.AmountMinor <= 0 {
		return nil, errors.New("stripe checkout amount must be positive")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, errors.New("stripe checkout currency is required")
	}

	description := req.Description
	if description == "" {
		description = "Order " + req.ClientReferenceID
	}
	params := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.ClientReferenceID),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(req.AmountMinor),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(description),
				},
			},
		}},
	}
	if c.successURL != "" {
		params.SuccessURL = stripe.String(c.successURL)
	}
	if c.cancelURL != "" {
		params.CancelURL = stripe.String(c.cancelURL)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return c.sessions.Create(ctx, params)
}

// GetCheckoutSession retrieves a session by id.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	if c == nil || c.sessions == nil {
		return nil, errors.New("stripe client not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("stripe checkout session id is required")
	}
	return c.sessions.Retrieve(ctx, sessionID, &stripe.CheckoutSessionRetrieveParams{})
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
func (c *Client) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if c == nil {
		return stripe.Event{}, errors.New("stripe client not configured")
	}
	return webhook.ConstructEvent(payload, sigHeader, c.signingSecret)
}
