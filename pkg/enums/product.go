package enums

import "fmt"

// ProductStatus is stored as a small integer on the products table.
type ProductStatus int

const (
	ProductStatusActive       ProductStatus = 1
	ProductStatusOutOfStock   ProductStatus = 2
	ProductStatusDiscontinued ProductStatus = 3
)

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	switch p {
	case ProductStatusActive:
		return "active"
	case ProductStatusOutOfStock:
		return "out_of_stock"
	case ProductStatusDiscontinued:
		return "discontinued"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// IsValid reports whether the value is a known ProductStatus.
func (p ProductStatus) IsValid() bool {
	return p >= ProductStatusActive && p <= ProductStatusDiscontinued
}

// ProductStatusForStock derives the status for a stock level. Discontinued
// products keep their status.
func ProductStatusForStock(current ProductStatus, stock int) ProductStatus {
	if current == ProductStatusDiscontinued {
		return current
	}
	if stock <= 0 {
		return ProductStatusOutOfStock
	}
	return ProductStatusActive
}
