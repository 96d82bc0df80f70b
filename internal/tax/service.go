// Package tax resolves the tax rate applied at checkout.
package tax

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

// Service reads the newest active tax row, falling back to a configured rate.
type Service struct {
	fallback decimal.Decimal
}

func NewService(fallback decimal.Decimal) *Service {
	return &Service{fallback: fallback}
}

// ActiveRate returns the rate as a fraction (0.18 for 18%). conn may be a
// transaction.
func (s *Service) ActiveRate(ctx context.Context, conn *gorm.DB) (decimal.Decimal, error) {
	var row models.Tax
	err := conn.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.fallback, nil
	}
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tax rate")
	}
	return row.Rate, nil
}

// Apply returns round2(amount * rate).
func Apply(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
