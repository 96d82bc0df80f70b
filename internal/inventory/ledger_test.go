package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/pkg/db/dbtest"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

func seedProduct(t *testing.T, db *gorm.DB, stock, held int) models.Product {
	t.Helper()
	product := models.Product{
		Name:         "Basmati Rice 5kg",
		SKU:          "RICE-" + uuid.NewString()[:8],
		Price:        decimal.NewFromInt(100),
		Stock:        stock,
		HeldQuantity: held,
		Status:       enums.ProductStatusForStock(enums.ProductStatusActive, stock),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if product.HeldQuantity < 0 || product.HeldQuantity > product.Stock {
		t.Fatalf("ledger invariant broken: stock=%d held=%d", product.Stock, product.HeldQuantity)
	}
	return product
}

func inTx(t *testing.T, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	t.Helper()
	return db.Transaction(fn)
}

func TestReserveHoldsQuantity(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger()
	product := seedProduct(t, db, 5, 0)

	if err := inTx(t, db, func(tx *gorm.DB) error {
		return ledger.Reserve(context.Background(), tx, product.ID, 2)
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	got := reload(t, db, product.ID)
	if got.Stock != 5 || got.HeldQuantity != 2 {
		t.Fatalf("unexpected ledger state stock=%d held=%d", got.Stock, got.HeldQuantity)
	}
	avail, err := ledger.Availability(context.Background(), db, product.ID)
	if err != nil || avail != 3 {
		t.Fatalf("expected availability 3, got %d (%v)", avail, err)
	}
}

func TestReserveBeyondAvailabilityLeavesLedgerUnchanged(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger()
	product := seedProduct(t, db, 5, 4)

	err := inTx(t, db, func(tx *gorm.DB) error {
		return ledger.Reserve(context.Background(), tx, product.ID, 2)
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(ShortageDetails)
	if !ok || details.Available != 1 || details.Requested != 2 || details.ProductName != product.Name {
		t.Fatalf("unexpected shortage details %+v", pkgerrors.As(err).Details())
	}

	got := reload(t, db, product.ID)
	if got.HeldQuantity != 4 {
		t.Fatalf("held quantity changed on failed reserve: %d", got.HeldQuantity)
	}
}

func TestReserveRejectsDiscontinuedAndMissing(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger()
	product := seedProduct(t, db, 5, 0)
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("status", enums.ProductStatusDiscontinued).Error; err != nil {
		t.Fatalf("discontinue: %v", err)
	}

	err := inTx(t, db, func(tx *gorm.DB) error {
		return ledger.Reserve(context.Background(), tx, product.ID, 1)
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for discontinued product, got %v", err)
	}

	err = inTx(t, db, func(tx *gorm.DB) error {
		return ledger.Reserve(context.Background(), tx, uuid.New(), 1)
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReleaseClampsAtZero(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger()
	product := seedProduct(t, db, 5, 2)

	if err := inTx(t, db, func(tx *gorm.DB) error {
		return ledger.Release(context.Background(), tx, product.ID, 3)
	}); err != nil {
		t.Fatalf("release: %v", err)
	}

	got := reload(t, db, product.ID)
	if got.Stock != 5 || got.HeldQuantity != 0 {
		t.Fatalf("unexpected ledger state stock=%d held=%d", got.Stock, got.HeldQuantity)
	}
}

func TestCommitConsumesReservationAndRecomputesStatus(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger()
	product := seedProduct(t, db, 2, 2)

	if err := inTx(t, db, func(tx *gorm.DB) error {
		return ledger.Commit(context.Background(), tx, product.ID, 2)
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got := reload(t, db, product.ID)
	if got.Stock != 0 || got.HeldQuantity != 0 {
		t.Fatalf("unexpected ledger state stock=%d held=%d", got.Stock, got.HeldQuantity)
	}
	if got.Status != enums.ProductStatusOutOfStock {
		t.Fatalf("expected out of stock status, got %s", got.Status)
	}
}

func TestCommitBeyondStockFails(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger()
	product := seedProduct(t, db, 1, 1)

	err := inTx(t, db, func(tx *gorm.DB) error {
		return ledger.Commit(context.Background(), tx, product.ID, 2)
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	got := reload(t, db, product.ID)
	if got.Stock != 1 || got.HeldQuantity != 1 {
		t.Fatalf("ledger changed on failed commit: stock=%d held=%d", got.Stock, got.HeldQuantity)
	}
}

func TestStatusReturnsToActiveWhenStockRemains(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger()
	product := seedProduct(t, db, 3, 1)
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("status", enums.ProductStatusOutOfStock).Error; err != nil {
		t.Fatalf("force status: %v", err)
	}

	if err := inTx(t, db, func(tx *gorm.DB) error {
		return ledger.Commit(context.Background(), tx, product.ID, 1)
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := reload(t, db, product.ID); got.Status != enums.ProductStatusActive {
		t.Fatalf("expected active status, got %s", got.Status)
	}
}

func TestReserveItemsIsAllOrNothingInsideTransaction(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger()
	plenty := seedProduct(t, db, 10, 0)
	scarce := seedProduct(t, db, 1, 0)

	err := inTx(t, db, func(tx *gorm.DB) error {
		return ledger.ReserveItems(context.Background(), tx, []Line{
			{ProductID: plenty.ID, Quantity: 3},
			{ProductID: scarce.ID, Quantity: 1},
			{ProductID: scarce.ID, Quantity: 1},
		})
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected aggregated shortage, got %v", err)
	}
	if got := reload(t, db, plenty.ID); got.HeldQuantity != 0 {
		t.Fatalf("rollback should have released plenty, held=%d", got.HeldQuantity)
	}
	if got := reload(t, db, scarce.ID); got.HeldQuantity != 0 {
		t.Fatalf("rollback should have released scarce, held=%d", got.HeldQuantity)
	}
}

func TestReserveThenCommitConservesQuantity(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger()
	product := seedProduct(t, db, 7, 0)
	lines := []Line{{ProductID: product.ID, Quantity: 2}, {ProductID: product.ID, Quantity: 3}}

	ctx := context.Background()
	if err := inTx(t, db, func(tx *gorm.DB) error { return ledger.ReserveItems(ctx, tx, lines) }); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := inTx(t, db, func(tx *gorm.DB) error { return ledger.CommitItems(ctx, tx, lines) }); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got := reload(t, db, product.ID)
	if got.Stock != 2 || got.HeldQuantity != 0 {
		t.Fatalf("expected stock 2 held 0, got stock=%d held=%d", got.Stock, got.HeldQuantity)
	}
}

func TestInvalidQuantity(t *testing.T) {
	db := dbtest.Open(t)
	ledger := NewLedger()
	product := seedProduct(t, db, 5, 0)

	err := inTx(t, db, func(tx *gorm.DB) error {
		return ledger.Reserve(context.Background(), tx, product.ID, 0)
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := ledger.Release(context.Background(), nil, product.ID, 1); !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected missing tx to fail, got %v", err)
	}
}

func TestAggregateSortsAndSums(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	got := Aggregate([]Line{{ProductID: b, Quantity: 1}, {ProductID: a, Quantity: 2}, {ProductID: b, Quantity: 4}})
	if len(got) != 2 || got[0].ProductID != a || got[0].Quantity != 2 || got[1].Quantity != 5 {
		t.Fatalf("unexpected aggregate %+v", got)
	}
}
