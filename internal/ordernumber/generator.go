// Package ordernumber issues BYT-{FY}-{FY+1}-{SEQ9} order numbers from a
// per-financial-year counter row.
package ordernumber

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

const (
	// DefaultPrefix is the order number prefix used when none is configured.
	DefaultPrefix = "BYT"
	seqDigits     = 9
	maxSequence   = 999_999_999
)

// IST is the zone financial years are computed in.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// Generator hands out order numbers inside the caller's transaction.
type Generator struct {
	prefix string
	now    func() time.Time
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(g *Generator) {
		if p := strings.TrimSpace(prefix); p != "" {
			g.prefix = p
		}
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{prefix: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FinancialYear returns "YY-YY" for the Indian financial year containing t.
// The year starts on 1 April IST.
func FinancialYear(t time.Time) string {
	local := t.In(IST)
	start := local.Year()
	if local.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%02d-%02d", start%100, (start+1)%100)
}

// Format renders an order number.
func Format(prefix, fy string, seq int64) string {
	return fmt.Sprintf("%s-%s-%0*d", prefix, fy, seqDigits, seq)
}

// Generate increments the counter for the current financial year and
// returns the formatted number. The counter row stays locked until tx ends,
// so a rollback discards the increment.
func (g *Generator) Generate(ctx context.Context, tx *gorm.DB) (string, error) {
	if tx == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "order number generation requires a transaction")
	}
	fy := FinancialYear(g.now())
	conn := tx.WithContext(ctx)

	seed, err := g.legacyHighWater(conn, fy)
	if err != nil {
		return "", err
	}

	row := models.OrderNumberSequence{FinancialYear: fy, LastValue: seed}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed order number sequence")
	}

	res := conn.Exec(`
		UPDATE order_number_sequences
		SET last_value = last_value + 1, updated_at = CURRENT_TIMESTAMP
		WHERE financial_year = ?
	`, fy)
	if res.Error != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment order number sequence")
	}
	if res.RowsAffected == 0 {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "order number sequence row missing")
	}

	var current models.OrderNumberSequence
	if err := conn.Where("financial_year = ?", fy).Take(&current).Error; err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order number sequence")
	}
	if current.LastValue > maxSequence {
		return "", pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("order number sequence exhausted for %s", fy))
	}

	return Format(g.prefix, fy, current.LastValue), nil
}

// legacyHighWater returns the greatest sequence already used by orders of
// fy. Sequences are zero padded so the lexical max is the numeric max.
func (g *Generator) legacyHighWater(conn *gorm.DB, fy string) (int64, error) {
	var latest models.Order
	err := conn.Select("order_number").
		Where("order_number LIKE ?", g.prefix+"-"+fy+"-%").
		Order("order_number DESC").
		Take(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan existing order numbers")
	}
	return ParseSequence(latest.OrderNumber)
}

// ParseSequence extracts the trailing sequence of an order number.
func ParseSequence(orderNumber string) (int64, error) {
	idx := strings.LastIndex(orderNumber, "-")
	if idx < 0 || idx == len(orderNumber)-1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("malformed order number %q", orderNumber))
	}
	seq, err := strconv.ParseInt(orderNumber[idx+1:], 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("malformed order number %q", orderNumber))
	}
	return seq, nil
}
