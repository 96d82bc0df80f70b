package types

import (
	"fmt"
	"regexp"
	"strings"
)

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// Address is stored as JSONB on orders.
type Address struct {
	Name       string   `json:"name,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Line1      string   `json:"line1" validate:"required"`
	Line2      *string  `json:"line2,omitempty"`
	City       string   `json:"city" validate:"required"`
	State      string   `json:"state" validate:"required"`
	PostalCode string   `json:"postal_code" validate:"required"`
	Country    string   `json:"country,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
}

// Validate checks the fields needed to deliver to the address.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.State) == "" {
		return fmt.Errorf("address: missing state")
	}
	if !pincodePattern.MatchString(strings.TrimSpace(a.PostalCode)) {
		return fmt.Errorf("address: postal_code must be a 6 digit pincode")
	}
	return nil
}

// Normalized trims fields and defaults the country to India.
func (a Address) Normalized() Address {
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	if a.Country == "" {
		a.Country = "IN"
	}
	return a
}

// OneLine renders the address for geocoding queries.
func (a Address) OneLine() string {
	parts := []string{a.Line1}
	if a.Line2 != nil && strings.TrimSpace(*a.Line2) != "" {
		parts = append(parts, strings.TrimSpace(*a.Line2))
	}
	parts = append(parts, a.City, a.State, a.PostalCode)
	if a.Country != "" {
		parts = append(parts, a.Country)
	}
	return strings.Join(parts, ", ")
}
