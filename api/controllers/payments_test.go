package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	paymentsvc "github.com/Prem931993/buytown-sub000/internal/payments"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

type stubPaymentService struct {
	create *paymentsvc.CreateResult
	result *paymentsvc.Result
	err    error

	gateway        enums.PaymentGateway
	orderID        uuid.UUID
	userID         uuid.UUID
	gatewayOrderID string
}

func (s *stubPaymentService) CreateGatewayOrder(ctx context.Context, gateway enums.PaymentGateway, orderID, userID uuid.UUID) (*paymentsvc.CreateResult, error) {
	s.gateway, s.orderID, s.userID = gateway, orderID, userID
	return s.create, s.err
}

func (s *stubPaymentService) VerifyPayment(ctx context.Context, gateway enums.PaymentGateway, gatewayOrderID string) (*paymentsvc.Result, error) {
	s.gateway, s.gatewayOrderID = gateway, gatewayOrderID
	return s.result, s.err
}

func (s *stubPaymentService) ParseWebhook(ctx context.Context, gateway enums.PaymentGateway, payload []byte, headers http.Header) (*paymentsvc.WebhookEvent, error) {
	return nil, errors.New("not used")
}

func (s *stubPaymentService) ApplyWebhook(ctx context.Context, gateway enums.PaymentGateway, event *paymentsvc.WebhookEvent) (*paymentsvc.Result, error) {
	return nil, errors.New("not used")
}

func (s *stubPaymentService) HandleWebhook(ctx context.Context, gateway enums.PaymentGateway, payload []byte, headers http.Header) (*paymentsvc.Result, error) {
	return nil, errors.New("not used")
}

func (s *stubPaymentService) ListPendingForReconcile(ctx context.Context, olderThan time.Duration, limit int) ([]models.Payment, error) {
	return nil, nil
}

func TestPaymentCreateOrder(t *testing.T) {
	svc := &stubPaymentService{create: &paymentsvc.CreateResult{PaymentID: uuid.New(), PaymentURL: "https://pay.example/redirect"}}
	customer := uuid.New()
	orderID := uuid.New()

	req := newRequest(http.MethodPost, "/api/v1/payments/PhonePe/orders", `{"order_id":"`+orderID.String()+`"}`, customer, enums.RoleCustomer, map[string]string{"gateway": "PhonePe"})
	rec, _ := serve(t, PaymentCreateOrder(svc, nil), req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.gateway != enums.PaymentGatewayPhonePe || svc.orderID != orderID || svc.userID != customer {
		t.Fatalf("unexpected create call gateway=%s order=%s user=%s", svc.gateway, svc.orderID, svc.userID)
	}
}

func TestPaymentCreateOrderUnknownGateway(t *testing.T) {
	req := newRequest(http.MethodPost, "/api/v1/payments/paypal/orders", `{"order_id":"`+uuid.NewString()+`"}`, uuid.New(), enums.RoleCustomer, map[string]string{"gateway": "paypal"})
	rec, _ := serve(t, PaymentCreateOrder(&stubPaymentService{}, nil), req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPaymentVerify(t *testing.T) {
	orderID := uuid.New()
	svc := &stubPaymentService{result: &paymentsvc.Result{Success: true, Status: enums.PaymentAttemptPaid, OrderID: orderID, Applied: true}}

	req := newRequest(http.MethodPost, "/verify", `{"gateway_order_id":" cs_test_1 "}`, uuid.New(), enums.RoleAdmin, map[string]string{"gateway": "stripe"})
	rec, _ := serve(t, PaymentVerify(svc, nil), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.gatewayOrderID != "cs_test_1" || svc.gateway != enums.PaymentGatewayStripe {
		t.Fatalf("unexpected verify call %s/%s", svc.gateway, svc.gatewayOrderID)
	}
}

func TestPaymentVerifyGatewayFailure(t *testing.T) {
	svc := &stubPaymentService{err: pkgerrors.Wrap(pkgerrors.CodeGateway, errors.New("timeout"), "fetch phonepe status")}
	req := newRequest(http.MethodPost, "/verify", `{"gateway_order_id":"BT-1"}`, uuid.New(), enums.RoleCustomer, map[string]string{"gateway": "phonepe"})
	rec, env := serve(t, PaymentVerify(svc, nil), req)
	if rec.Code != http.StatusBadGateway || env.Error.Code != string(pkgerrors.CodeGateway) {
		t.Fatalf("expected 502 gateway error, got %d (%s)", rec.Code, rec.Body.String())
	}
}
