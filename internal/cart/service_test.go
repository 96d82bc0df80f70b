package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/internal/inventory"
	"github.com/Prem931993/buytown-sub000/internal/tax"
	"github.com/Prem931993/buytown-sub000/pkg/db"
	"github.com/Prem931993/buytown-sub000/pkg/db/dbtest"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

type fixture struct {
	conn    *gorm.DB
	svc     Service
	userID  uuid.UUID
	product models.Product
}

func newFixture(t *testing.T, stock int, maxLines int) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	product := models.Product{
		Name:   "Basmati Rice 5kg",
		SKU:    "RICE-5",
		Price:  decimal.RequireFromString("499.00"),
		Stock:  stock,
		Status: enums.ProductStatusActive,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	svc, err := NewService(
		NewRepository(conn),
		db.Wrap(conn),
		inventory.NewLedger(),
		tax.NewService(decimal.RequireFromString("0.05")),
		maxLines,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return fixture{conn: conn, svc: svc, userID: uuid.New(), product: product}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, nil, nil, 0); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestAddItemCreatesCartAndMergesLines(t *testing.T) {
	f := newFixture(t, 10, 0)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: f.product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	item, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: f.product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("add item again: %v", err)
	}
	if item.Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", item.Quantity)
	}
	if !item.TotalPrice.Equal(decimal.RequireFromString("2495")) {
		t.Fatalf("unexpected total price %s", item.TotalPrice)
	}

	summary, err := f.svc.GetCart(ctx, f.userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(summary.Items) != 1 || summary.ItemCount != 5 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !summary.Tax.Equal(decimal.RequireFromString("124.75")) {
		t.Fatalf("unexpected tax %s", summary.Tax)
	}
	if !summary.Total.Equal(decimal.RequireFromString("2619.75")) {
		t.Fatalf("unexpected total %s", summary.Total)
	}
}

func TestAddItemUsesVariationPrice(t *testing.T) {
	f := newFixture(t, 10, 0)
	variation := models.ProductVariation{ProductID: f.product.ID, Name: "10kg", Price: decimal.RequireFromString("899.50")}
	if err := f.conn.Create(&variation).Error; err != nil {
		t.Fatalf("seed variation: %v", err)
	}

	item, err := f.svc.AddItem(context.Background(), f.userID, AddItemInput{
		ProductID:   f.product.ID,
		VariationID: &variation.ID,
		Quantity:    2,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if !item.Price.Equal(variation.Price) || !item.TotalPrice.Equal(decimal.RequireFromString("1799")) {
		t.Fatalf("expected variation pricing, got %s / %s", item.Price, item.TotalPrice)
	}
}

func TestAddItemRejectsBeyondAvailability(t *testing.T) {
	f := newFixture(t, 3, 0)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: f.product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: f.product.ID, Quantity: 2})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var held models.Product
	f.conn.First(&held, "id = ?", f.product.ID)
	if held.HeldQuantity != 0 {
		t.Fatalf("cart must not reserve stock, held=%d", held.HeldQuantity)
	}
}

func TestUpdateAndRemoveItem(t *testing.T) {
	f := newFixture(t, 10, 0)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: f.product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	updated, err := f.svc.UpdateItem(ctx, f.userID, item.ID, 4)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", updated.Quantity)
	}
	if _, err := f.svc.UpdateItem(ctx, f.userID, item.ID, 11); !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if _, err := f.svc.UpdateItem(ctx, uuid.New(), item.ID, 1); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected other users to miss the item, got %v", err)
	}

	if err := f.svc.RemoveItem(ctx, f.userID, item.ID); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	var cart models.Cart
	f.conn.First(&cart, "user_id = ?", f.userID)
	if cart.Status != enums.CartStatusEmpty {
		t.Fatalf("expected empty cart status, got %s", cart.Status)
	}
}

func TestClearResetsCart(t *testing.T) {
	f := newFixture(t, 10, 0)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: f.product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := f.svc.Clear(ctx, f.userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	summary, err := f.svc.GetCart(ctx, f.userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(summary.Items) != 0 || !summary.Total.IsZero() {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
	if err := f.svc.Clear(ctx, uuid.New()); err != nil {
		t.Fatalf("clearing a missing cart is a no-op, got %v", err)
	}
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t, 10, 1)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: f.product.ID, Quantity: 0}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: uuid.New(), Quantity: 1}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	other := models.Product{Name: "Atta", SKU: "ATTA-1", Price: decimal.NewFromInt(60), Stock: 5, Status: enums.ProductStatusActive}
	if err := f.conn.Create(&other).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: f.product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: other.ID, Quantity: 1}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected line limit validation, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, Price: decimal.RequireFromString("10.10"), TotalPrice: decimal.RequireFromString("20.20")},
		{Quantity: 1, Price: decimal.RequireFromString("5.05"), TotalPrice: decimal.RequireFromString("5.05")},
	}
	summary := Summarize(items, decimal.RequireFromString("0.18"))
	if !summary.Subtotal.Equal(decimal.RequireFromString("25.25")) {
		t.Fatalf("unexpected subtotal %s", summary.Subtotal)
	}
	if !summary.Tax.Equal(decimal.RequireFromString("4.55")) {
		t.Fatalf("unexpected tax %s", summary.Tax)
	}
	if !summary.Total.Equal(decimal.RequireFromString("29.8")) {
		t.Fatalf("unexpected total %s", summary.Total)
	}
}
