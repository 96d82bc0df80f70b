// Package inventory owns the stock and held_quantity columns of products.
// Every write to either column goes through Ledger so the held <= stock
// invariant and the derived product status stay in one place.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

// statusExpr recomputes products.status from the post-update stock. SQL SET
// expressions see the pre-update row, so callers pass the stock delta.
const statusExpr = `CASE WHEN status = 3 THEN 3 WHEN stock - ? <= 0 THEN 2 ELSE 1 END`

// Line is one product quantity to reserve, release or commit.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// ShortageDetails is attached to INSUFFICIENT_STOCK errors.
type ShortageDetails struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// Ledger mutates product stock inside the caller's transaction.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Availability returns stock - held_quantity for a product.
func (l *Ledger) Availability(ctx context.Context, conn *gorm.DB, productID uuid.UUID) (int, error) {
	product, err := loadProduct(ctx, conn, productID, false)
	if err != nil {
		return 0, err
	}
	return product.Available(), nil
}

// Reserve moves qty units into held_quantity. The conditional update rejects
// the reservation when availability dropped below qty.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := requireTx(tx, qty); err != nil {
		return err
	}

	product, err := loadProduct(ctx, tx, productID, true)
	if err != nil {
		return err
	}
	if product.Status == enums.ProductStatusDiscontinued {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %s is discontinued", product.Name)).
			WithDetails(map[string]any{"product_id": productID})
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET held_quantity = held_quantity + ?,
			status = `+statusExpr+`,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock - held_quantity >= ?
	`, qty, 0, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
	}
	if res.RowsAffected == 0 {
		return shortage(product, qty)
	}
	return nil
}

// Release returns qty held units to availability, clamping held_quantity at zero.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := requireTx(tx, qty); err != nil {
		return err
	}
	if _, err := loadProduct(ctx, tx, productID, true); err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET held_quantity = CASE WHEN held_quantity > ? THEN held_quantity - ? ELSE 0 END,
			status = `+statusExpr+`,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, qty, 0, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release inventory")
	}
	return nil
}

// Commit consumes a reservation: stock and held_quantity both drop by qty.
func (l *Ledger) Commit(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := requireTx(tx, qty); err != nil {
		return err
	}
	product, err := loadProduct(ctx, tx, productID, true)
	if err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock - ?,
			held_quantity = CASE WHEN held_quantity > ? THEN held_quantity - ? ELSE 0 END,
			status = `+statusExpr+`,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, qty, qty, qty, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "commit inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("cannot commit %d units of %s", qty, product.Name)).
			WithDetails(ShortageDetails{ProductID: product.ID, ProductName: product.Name, Requested: qty, Available: product.Stock})
	}
	return nil
}

// ReserveItems reserves every line, one product at a time in id order.
func (l *Ledger) ReserveItems(ctx context.Context, tx *gorm.DB, lines []Line) error {
	return eachAggregated(lines, func(line Line) error {
		return l.Reserve(ctx, tx, line.ProductID, line.Quantity)
	})
}

// ReleaseItems releases every line, one product at a time in id order.
func (l *Ledger) ReleaseItems(ctx context.Context, tx *gorm.DB, lines []Line) error {
	return eachAggregated(lines, func(line Line) error {
		return l.Release(ctx, tx, line.ProductID, line.Quantity)
	})
}

// CommitItems commits every line, one product at a time in id order.
func (l *Ledger) CommitItems(ctx context.Context, tx *gorm.DB, lines []Line) error {
	return eachAggregated(lines, func(line Line) error {
		return l.Commit(ctx, tx, line.ProductID, line.Quantity)
	})
}

// Aggregate sums quantities per product and sorts by product id, giving every
// transaction the same lock order.
func Aggregate(lines []Line) []Line {
	totals := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		totals[line.ProductID] += line.Quantity
	}
	out := make([]Line, 0, len(totals))
	for id, qty := range totals {
		out = append(out, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}

func eachAggregated(lines []Line, fn func(Line) error) error {
	for _, line := range Aggregate(lines) {
		if err := fn(line); err != nil {
			return err
		}
	}
	return nil
}

func requireTx(tx *gorm.DB, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for inventory mutation")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}

func loadProduct(ctx context.Context, conn *gorm.DB, productID uuid.UUID, lock bool) (*models.Product, error) {
	q := conn.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product models.Product
	if err := q.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &product, nil
}

func shortage(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", product.Name)).
		WithDetails(ShortageDetails{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   requested,
			Available:   product.Available(),
		})
}
