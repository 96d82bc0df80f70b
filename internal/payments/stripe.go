package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
	stripeclient "github.com/Prem931993/buytown-sub000/pkg/stripe"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

type stripeAPI interface {
	CreateCheckoutSession(ctx context.Context, req stripeclient.CheckoutRequest) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeGateway adapts Stripe hosted checkout sessions.
type StripeGateway struct {
	api stripeAPI
}

func NewStripeGateway(api stripeAPI) (*StripeGateway, error) {
	if api == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	return &StripeGateway{api: api}, nil
}

func (g *StripeGateway) Name() enums.PaymentGateway {
	return enums.PaymentGatewayStripe
}

func (g *StripeGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	session, err := g.api.CreateCheckoutSession(ctx, stripeclient.CheckoutRequest{
		ClientReferenceID: req.Reference,
		Description:       "BuyTown order " + req.OrderNumber,
		AmountMinor:       stripeclient.ToMinorUnits(req.Amount),
		Currency:          req.Currency,
		CustomerEmail:     req.Email,
		Metadata: map[string]string{
			"order_id":     req.OrderID.String(),
			"order_number": req.OrderNumber,
		},
	})
	if err != nil {
		return nil, stripeError(err, "create checkout session")
	}
	raw, _ := types.JSONMapOf(session)
	return &GatewayOrder{
		GatewayOrderID: session.ID,
		PaymentURL:     session.URL,
		Status:         enums.PaymentAttemptCreated,
		Raw:            raw,
	}, nil
}

func (g *StripeGateway) FetchStatus(ctx context.Context, gatewayOrderID string) (*GatewayStatus, error) {
	session, err := g.api.GetCheckoutSession(ctx, gatewayOrderID)
	if err != nil {
		return nil, stripeError(err, "retrieve checkout session")
	}
	raw, _ := types.JSONMapOf(session)
	return &GatewayStatus{
		GatewayOrderID: session.ID,
		TransactionID:  paymentIntentID(session),
		Status:         sessionStatus(session),
		Raw:            raw,
	}, nil
}

func (g *StripeGateway) ParseWebhook(_ context.Context, payload []byte, headers http.Header) (*WebhookEvent, error) {
	sigHeader := headers.Get("Stripe-Signature")
	if sigHeader == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSignature, "stripe signature missing")
	}
	event, err := g.api.ConstructEvent(payload, sigHeader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidSignature, err, "verify stripe signature")
	}

	out := &WebhookEvent{EventID: event.ID, Raw: types.JSONMapFrom(payload)}
	var session stripe.CheckoutSession
	switch string(event.Type) {
	case stripeclient.EventCheckoutSessionCompleted,
		stripeclient.EventCheckoutSessionAsyncPaymentSucceeded,
		stripeclient.EventCheckoutSessionAsyncPaymentFailed,
		stripeclient.EventCheckoutSessionExpired:
		if event.Data == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe event missing data")
		}
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
		}
	default:
		return out, nil
	}

	out.GatewayOrderID = session.ID
	out.TransactionID = paymentIntentID(&session)
	switch string(event.Type) {
	case stripeclient.EventCheckoutSessionCompleted:
		if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
			out.Status = enums.PaymentAttemptPaid
		} else {
			out.Status = enums.PaymentAttemptPending
		}
	case stripeclient.EventCheckoutSessionAsyncPaymentSucceeded:
		out.Status = enums.PaymentAttemptPaid
	case stripeclient.EventCheckoutSessionAsyncPaymentFailed:
		out.Status = enums.PaymentAttemptFailed
	case stripeclient.EventCheckoutSessionExpired:
		out.Status = enums.PaymentAttemptCancelled
	}
	return out, nil
}

func sessionStatus(session *stripe.CheckoutSession) enums.PaymentAttemptStatus {
	switch {
	case session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return enums.PaymentAttemptPaid
	case session.Status == stripe.CheckoutSessionStatusExpired:
		return enums.PaymentAttemptCancelled
	default:
		return enums.PaymentAttemptPending
	}
}

func paymentIntentID(session *stripe.CheckoutSession) string {
	if session == nil || session.PaymentIntent == nil {
		return ""
	}
	return session.PaymentIntent.ID
}

func stripeError(err error, op string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, stripeErr.Msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, op)
}
