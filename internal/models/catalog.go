package models

import (
	"time"

	"github.com/google/uuid"
)

type ProductVariant struct {
	ID        uuid.UUID `gorm:"primaryKey"              json:"id"`
	ProductID uuid.UUID `gorm:"index;not null"          json:"product_id"`
	SKU       string    `gorm:"uniqueIndex;not null"    json:"sku"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	Price     int64     `gorm:"not null;check:price>=0" json:"price"`
	SalePrice *int64    `json:"sale_price,omitempty"`
	Stock     int64     `gorm:"not null;check:stock>=0" json:"stock"`
	IsActive  bool      `gorm:"not null;default:true"   json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// EffectivePrice is the sale price when it is set, positive and lower than
// the list price.
func (v ProductVariant) EffectivePrice() int64 {
	if v.SalePrice != nil && *v.SalePrice > 0 && *v.SalePrice < v.Price {
		return *v.SalePrice
	}
	return v.Price
}

type Address struct {
	ID       uuid.UUID `gorm:"primaryKey"     json:"id"`
	UserID   uuid.UUID `gorm:"index;not null" json:"user_id"`
	FullName string    `gorm:"not null"       json:"full_name"`
	Phone    string    `gorm:"not null"       json:"phone"`
	Line     string    `gorm:"not null"       json:"line"`
	City     string    `gorm:"not null"       json:"city"`
}

func (Address) TableName() string {
	return "addresses"
}

type PaymentKind string

const (
	PaymentKindCOD     PaymentKind = "cod"
	PaymentKindGateway PaymentKind = "gateway"
	PaymentKindInstant PaymentKind = "instant"
)

type PaymentMethod struct {
	ID       uuid.UUID   `gorm:"primaryKey"            json:"id"`
	Code     string      `gorm:"uniqueIndex;not null"  json:"code"`
	Name     string      `gorm:"not null"              json:"name"`
	Kind     PaymentKind `gorm:"not null"              json:"kind"`
	IsActive bool        `gorm:"not null;default:true" json:"is_active"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
