package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureID assigns a v4 id before insert so rows carry ids on every dialect.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Product) BeforeCreate(*gorm.DB) error          { ensureID(&p.ID); return nil }
func (v *ProductVariation) BeforeCreate(*gorm.DB) error { ensureID(&v.ID); return nil }
func (c *Cart) BeforeCreate(*gorm.DB) error             { ensureID(&c.ID); return nil }
func (i *CartItem) BeforeCreate(*gorm.DB) error         { ensureID(&i.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error            { ensureID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error        { ensureID(&i.ID); return nil }
func (p *Payment) BeforeCreate(*gorm.DB) error          { ensureID(&p.ID); return nil }
func (e *PaymentEvent) BeforeCreate(*gorm.DB) error     { ensureID(&e.ID); return nil }
func (v *Vehicle) BeforeCreate(*gorm.DB) error          { ensureID(&v.ID); return nil }
func (t *Tax) BeforeCreate(*gorm.DB) error              { ensureID(&t.ID); return nil }
func (u *User) BeforeCreate(*gorm.DB) error             { ensureID(&u.ID); return nil }

// All lists every model, in dependency order, for test schemas.
func All() []any {
	return []any{
		&User{},
		&Vehicle{},
		&Tax{},
		&Product{},
		&ProductVariation{},
		&Cart{},
		&CartItem{},
		&OrderNumberSequence{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&PaymentEvent{},
	}
}
