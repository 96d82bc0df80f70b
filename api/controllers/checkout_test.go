package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	checkoutsvc "github.com/Prem931993/buytown-sub000/internal/checkout"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

type stubCheckoutService struct {
	order  *models.Order
	err    error
	userID uuid.UUID
	input  checkoutsvc.Input
}

func (s *stubCheckoutService) Checkout(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*models.Order, error) {
	s.userID, s.input = userID, input
	return s.order, s.err
}

const checkoutBody = `{
	"shipping_address": {"line1": "12 MG Road", "city": "Chennai", "state": "TN", "postal_code": "600001"},
	"payment_method": "cod",
	"notes": "ring the bell",
	"delivery_distance": "4.5"
}`

func TestCheckoutSuccess(t *testing.T) {
	order := sampleOrder()
	svc := &stubCheckoutService{order: order}
	customer := uuid.New()

	req := newRequest(http.MethodPost, "/api/v1/checkout", checkoutBody, customer, enums.RoleCustomer, nil)
	rec, env := serve(t, Checkout(svc, nil), req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.userID != customer {
		t.Fatalf("expected checkout for caller")
	}
	if svc.input.PaymentMethod != "cod" || svc.input.ShippingAddress == nil || svc.input.ShippingAddress.City != "Chennai" {
		t.Fatalf("unexpected checkout input %+v", svc.input)
	}
	if svc.input.DeliveryDistance == nil || !svc.input.DeliveryDistance.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("expected delivery distance forwarded")
	}

	var got orderResponse
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if got.OrderNumber != order.OrderNumber {
		t.Fatalf("expected order number %s, got %s", order.OrderNumber, got.OrderNumber)
	}
}

func TestCheckoutRequiresShippingAddress(t *testing.T) {
	req := newRequest(http.MethodPost, "/api/v1/checkout", `{"payment_method":"cod"}`, uuid.New(), enums.RoleCustomer, nil)
	rec, env := serve(t, Checkout(&stubCheckoutService{}, nil), req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if _, ok := env.Error.Details["shipping_address"]; !ok {
		t.Fatalf("expected shipping_address detail, got %v", env.Error.Details)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}
	req := newRequest(http.MethodPost, "/api/v1/checkout", checkoutBody, uuid.New(), enums.RoleCustomer, nil)
	rec, env := serve(t, Checkout(svc, nil), req)
	if rec.Code != http.StatusBadRequest || env.Error.Message != "cart is empty" {
		t.Fatalf("expected empty cart validation, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestCheckoutHidesInternalErrors(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeInternal, "pq: relation orders_tmp missing")}
	req := newRequest(http.MethodPost, "/api/v1/checkout", checkoutBody, uuid.New(), enums.RoleCustomer, nil)
	rec, env := serve(t, Checkout(svc, nil), req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if env.Error.Message == "pq: relation orders_tmp missing" {
		t.Fatalf("internal error message leaked")
	}
}
