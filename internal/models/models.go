package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/apparel_shop/pkg/outbox"
)

// All lists every table the shop owns, in migration order.
func All() []any {
	return []any{
		&ProductVariant{},
		&Address{},
		&PaymentMethod{},
		&Voucher{},
		&VoucherRedemption{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderHistory{},
		&PaymentCallback{},
		&OrderCodeSequence{},
		&outbox.Event{},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error    { ensureID(&v.ID); return nil }
func (a *Address) BeforeCreate(*gorm.DB) error           { ensureID(&a.ID); return nil }
func (p *PaymentMethod) BeforeCreate(*gorm.DB) error     { ensureID(&p.ID); return nil }
func (v *Voucher) BeforeCreate(*gorm.DB) error           { ensureID(&v.ID); return nil }
func (r *VoucherRedemption) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }
func (c *Cart) BeforeCreate(*gorm.DB) error              { ensureID(&c.ID); return nil }
func (i *CartItem) BeforeCreate(*gorm.DB) error          { ensureID(&i.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error             { ensureID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error         { ensureID(&i.ID); return nil }
func (h *OrderHistory) BeforeCreate(*gorm.DB) error      { ensureID(&h.ID); return nil }
func (p *PaymentCallback) BeforeCreate(*gorm.DB) error   { ensureID(&p.ID); return nil }
