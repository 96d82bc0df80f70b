package ordernumber

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/pkg/db/dbtest"
	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func generate(t *testing.T, db *gorm.DB, gen *Generator) string {
	t.Helper()
	var number string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		number, err = gen.Generate(context.Background(), tx)
		return err
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return number
}

func TestFinancialYear(t *testing.T) {
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2025, 10, 3, 12, 0, 0, 0, IST), "25-26"},
		{time.Date(2026, 2, 14, 12, 0, 0, 0, IST), "25-26"},
		{time.Date(2026, 4, 1, 0, 0, 0, 0, IST), "26-27"},
		{time.Date(2099, 6, 1, 0, 0, 0, 0, IST), "99-00"},
		// 31 March 19:00 UTC is already 1 April in IST.
		{time.Date(2026, 3, 31, 19, 0, 0, 0, time.UTC), "26-27"},
	}
	for _, tc := range cases {
		if got := FinancialYear(tc.at); got != tc.want {
			t.Fatalf("FinancialYear(%s) = %s, want %s", tc.at, got, tc.want)
		}
	}
}

func TestGenerateSequential(t *testing.T) {
	db := dbtest.Open(t)
	gen := NewGenerator(WithClock(fixedClock(time.Date(2025, 10, 3, 10, 0, 0, 0, IST))))

	first := generate(t, db, gen)
	second := generate(t, db, gen)

	if first != "BYT-25-26-000000001" {
		t.Fatalf("unexpected first number %s", first)
	}
	if second != "BYT-25-26-000000002" {
		t.Fatalf("unexpected second number %s", second)
	}
}

func TestGenerateRollbackLeavesNoGap(t *testing.T) {
	db := dbtest.Open(t)
	gen := NewGenerator(WithClock(fixedClock(time.Date(2025, 10, 3, 10, 0, 0, 0, IST))))

	generate(t, db, gen)
	boom := errors.New("checkout failed")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := gen.Generate(context.Background(), tx); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected rollback error, got %v", err)
	}

	if next := generate(t, db, gen); next != "BYT-25-26-000000002" {
		t.Fatalf("expected rolled back increment to be reused, got %s", next)
	}
}

func TestGenerateNewFinancialYearRestarts(t *testing.T) {
	db := dbtest.Open(t)
	now := time.Date(2026, 3, 30, 10, 0, 0, 0, IST)
	gen := NewGenerator(WithClock(func() time.Time { return now }))

	generate(t, db, gen)
	generate(t, db, gen)
	now = time.Date(2026, 4, 2, 10, 0, 0, 0, IST)

	if got := generate(t, db, gen); got != "BYT-26-27-000000001" {
		t.Fatalf("expected new year to restart, got %s", got)
	}
}

func TestGenerateSeedsFromExistingOrders(t *testing.T) {
	db := dbtest.Open(t)
	legacy := models.Order{
		OrderNumber:     "BYT-25-26-000000041",
		UserID:          uuid.New(),
		Status:          enums.OrderStatusCompleted,
		PaymentStatus:   enums.PaymentStatusPaid,
		PaymentMethod:   enums.PaymentMethodCOD,
		ShippingAddress: types.Address{Line1: "1 Main", City: "Chennai", State: "TN", PostalCode: "600001"},
		Subtotal:        decimal.NewFromInt(10),
		TotalAmount:     decimal.NewFromInt(10),
	}
	if err := db.Create(&legacy).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	gen := NewGenerator(WithClock(fixedClock(time.Date(2025, 12, 1, 10, 0, 0, 0, IST))))
	if got := generate(t, db, gen); got != "BYT-25-26-000000042" {
		t.Fatalf("expected sequence to continue after legacy orders, got %s", got)
	}
}

func TestGenerateConcurrentIsUnique(t *testing.T) {
	db := dbtest.Open(t)
	gen := NewGenerator(WithClock(fixedClock(time.Date(2025, 10, 3, 10, 0, 0, 0, IST))))
	pattern := regexp.MustCompile(`^BYT-\d{2}-\d{2}-\d{9}$`)

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, workers)
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var number string
			err := db.Transaction(func(tx *gorm.DB) error {
				var err error
				number, err = gen.Generate(context.Background(), tx)
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[number] = struct{}{}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("concurrent generate failed: %v", errs[0])
	}
	if len(numbers) != workers {
		t.Fatalf("expected %d unique numbers, got %d", workers, len(numbers))
	}
	for n := range numbers {
		if !pattern.MatchString(n) {
			t.Fatalf("number %s does not match format", n)
		}
	}
	if _, ok := numbers[Format(DefaultPrefix, "25-26", workers)]; !ok {
		t.Fatalf("expected sequence to reach %d", workers)
	}
}

func TestParseSequence(t *testing.T) {
	seq, err := ParseSequence("BYT-25-26-000000123")
	if err != nil || seq != 123 {
		t.Fatalf("unexpected parse %d (%v)", seq, err)
	}
	if _, err := ParseSequence("BYT-25-26-"); err == nil {
		t.Fatal("expected error for missing sequence")
	}
	if _, err := ParseSequence("garbage"); err == nil {
		t.Fatal("expected error for malformed number")
	}
}

func TestWithPrefix(t *testing.T) {
	db := dbtest.Open(t)
	gen := NewGenerator(
		WithPrefix("TST"),
		WithClock(fixedClock(time.Date(2025, 10, 3, 10, 0, 0, 0, IST))),
	)
	if got := generate(t, db, gen); got != "TST-25-26-000000001" {
		t.Fatalf("unexpected number %s", got)
	}
}
