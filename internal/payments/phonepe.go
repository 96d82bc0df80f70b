package payments

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
	"github.com/Prem931993/buytown-sub000/pkg/phonepe"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

type phonePeAPI interface {
	Pay(ctx context.Context, req phonepe.PayRequest) (*phonepe.PayResponse, error)
	Status(ctx context.Context, merchantTransactionID string) (*phonepe.StatusResponse, error)
	ParseCallback(xVerify string, body []byte) (*phonepe.StatusResponse, error)
}

// PhonePeGateway adapts the PhonePe pay-page API.
type PhonePeGateway struct {
	api phonePeAPI
}

func NewPhonePeGateway(api phonePeAPI) (*PhonePeGateway, error) {
	if api == nil {
		return nil, fmt.Errorf("phonepe client required")
	}
	return &PhonePeGateway{api: api}, nil
}

func (g *PhonePeGateway) Name() enums.PaymentGateway {
	return enums.PaymentGatewayPhonePe
}

func (g *PhonePeGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	resp, err := g.api.Pay(ctx, phonepe.PayRequest{
		MerchantTransactionID: req.Reference,
		MerchantUserID:        req.UserID.String(),
		AmountPaise:           phonepe.ToPaise(req.Amount),
		MobileNumber:          req.Phone,
	})
	if err != nil {
		return nil, err
	}
	return &GatewayOrder{
		GatewayOrderID: resp.MerchantTransactionID,
		PaymentURL:     resp.RedirectURL,
		Status:         enums.PaymentAttemptCreated,
		Raw:            types.JSONMap(resp.Raw),
	}, nil
}

func (g *PhonePeGateway) FetchStatus(ctx context.Context, gatewayOrderID string) (*GatewayStatus, error) {
	resp, err := g.api.Status(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	return &GatewayStatus{
		GatewayOrderID: resp.MerchantTransactionID,
		TransactionID:  resp.TransactionID,
		Status:         phonePeStatus(resp.Code),
		Message:        resp.Message,
		Raw:            types.JSONMap(resp.Raw),
	}, nil
}

func (g *PhonePeGateway) ParseWebhook(_ context.Context, payload []byte, headers http.Header) (*WebhookEvent, error) {
	xVerify := headers.Get("X-VERIFY")
	if xVerify == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSignature, "phonepe signature missing")
	}
	resp, err := g.api.ParseCallback(xVerify, payload)
	if err != nil {
		return nil, err
	}
	return &WebhookEvent{
		EventID:        fmt.Sprintf("%s:%s:%s", resp.MerchantTransactionID, resp.Code, resp.TransactionID),
		GatewayOrderID: resp.MerchantTransactionID,
		TransactionID:  resp.TransactionID,
		Status:         phonePeStatus(resp.Code),
		Message:        resp.Message,
		Raw:            types.JSONMap(resp.Raw),
	}, nil
}

// Unknown codes stay pending so the reconcile sweep asks again.
func phonePeStatus(code string) enums.PaymentAttemptStatus {
	switch code {
	case phonepe.CodePaymentSuccess:
		return enums.PaymentAttemptPaid
	case phonepe.CodePaymentError, phonepe.CodePaymentDeclined, phonepe.CodeTimedOut:
		return enums.PaymentAttemptFailed
	case phonepe.CodePaymentCancelled:
		return enums.PaymentAttemptCancelled
	default:
		return enums.PaymentAttemptPending
	}
}
