package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/Prem931993/buytown-sub000/internal/cart"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

type stubCartService struct {
	summary *cartsvc.Summary
	item    *models.CartItem
	err     error

	added    cartsvc.AddItemInput
	quantity int
	cleared  bool
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cartsvc.Summary, error) {
	return s.summary, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (*models.CartItem, error) {
	s.added = input
	return s.item, s.err
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	s.quantity = quantity
	return s.item, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	return s.err
}

func sampleCartItem() *models.CartItem {
	return &models.CartItem{
		ID:         uuid.New(),
		ProductID:  uuid.New(),
		Quantity:   2,
		Price:      decimal.NewFromInt(100),
		TotalPrice: decimal.NewFromInt(200),
		Product:    &models.Product{Name: "Toor Dal 1kg"},
	}
}

func TestCartFetch(t *testing.T) {
	item := sampleCartItem()
	svc := &stubCartService{summary: &cartsvc.Summary{
		Items:     []models.CartItem{*item},
		ItemCount: 2,
		Subtotal:  decimal.NewFromInt(200),
		TaxRate:   decimal.NewFromInt(18),
		Tax:       decimal.NewFromInt(36),
		Total:     decimal.NewFromInt(236),
	}}

	req := newRequest(http.MethodGet, "/api/v1/cart", "", uuid.New(), enums.RoleCustomer, nil)
	rec, env := serve(t, CartFetch(svc, nil), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var got cartResponse
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if !got.Total.Equal(decimal.NewFromInt(236)) || got.ItemCount != 2 {
		t.Fatalf("unexpected totals %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].ProductName != "Toor Dal 1kg" {
		t.Fatalf("unexpected items %+v", got.Items)
	}
}

func TestCartAddItem(t *testing.T) {
	svc := &stubCartService{item: sampleCartItem()}
	productID := uuid.New()

	body := `{"product_id":"` + productID.String() + `","quantity":3}`
	req := newRequest(http.MethodPost, "/api/v1/cart/items", body, uuid.New(), enums.RoleCustomer, nil)
	rec, _ := serve(t, CartAddItem(svc, nil), req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.added.ProductID != productID || svc.added.Quantity != 3 || svc.added.VariationID != nil {
		t.Fatalf("unexpected add input %+v", svc.added)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	cases := map[string]string{
		"missing product": `{"quantity":1}`,
		"zero quantity":   `{"product_id":"` + uuid.NewString() + `","quantity":0}`,
		"unknown field":   `{"product_id":"` + uuid.NewString() + `","quantity":1,"price":1}`,
	}
	for name, body := range cases {
		req := newRequest(http.MethodPost, "/api/v1/cart/items", body, uuid.New(), enums.RoleCustomer, nil)
		rec, _ := serve(t, CartAddItem(&stubCartService{}, nil), req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestCartAddItemInsufficientStock(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{"available": 1})}

	body := `{"product_id":"` + uuid.NewString() + `","quantity":5}`
	req := newRequest(http.MethodPost, "/api/v1/cart/items", body, uuid.New(), enums.RoleCustomer, nil)
	rec, env := serve(t, CartAddItem(svc, nil), req)
	if rec.Code != http.StatusConflict || env.Error.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected 409 insufficient stock, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestCartUpdateItem(t *testing.T) {
	svc := &stubCartService{item: sampleCartItem()}
	req := newRequest(http.MethodPatch, "/api/v1/cart/items/x", `{"quantity":4}`, uuid.New(), enums.RoleCustomer, map[string]string{"itemId": uuid.NewString()})
	rec, _ := serve(t, CartUpdateItem(svc, nil), req)
	if rec.Code != http.StatusOK || svc.quantity != 4 {
		t.Fatalf("expected quantity 4 applied, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}
	req := newRequest(http.MethodDelete, "/api/v1/cart", "", uuid.New(), enums.RoleCustomer, nil)
	rec, _ := serve(t, CartClear(svc, nil), req)
	if rec.Code != http.StatusOK || !svc.cleared {
		t.Fatalf("expected cart cleared, got %d", rec.Code)
	}
}
