package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the mutable pre-checkout basket. OpenKey holds the owner id while
// the cart is open so a user has at most one; finalization clears it and
// sets OrderID, after which the row is never reopened.
type Cart struct {
	ID        uuid.UUID  `gorm:"primaryKey"     json:"id"`
	UserID    uuid.UUID  `gorm:"index;not null" json:"user_id"`
	OpenKey   *uuid.UUID `gorm:"uniqueIndex"    json:"-"`
	OrderID   *uuid.UUID `gorm:"index"          json:"order_id,omitempty"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

func (c Cart) CheckedOut() bool {
	return c.OrderID != nil
}

func (c Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.LineTotal
	}
	return total
}

type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                               json:"id"`
	CartID    uuid.UUID `gorm:"uniqueIndex:idx_cart_variant;not null"    json:"cart_id"`
	VariantID uuid.UUID `gorm:"uniqueIndex:idx_cart_variant;not null"    json:"variant_id"`
	Quantity  int64     `gorm:"not null;check:quantity>0"                json:"quantity"`
	UnitPrice int64     `gorm:"not null"                                 json:"unit_price"`
	LineTotal int64     `gorm:"not null"                                 json:"line_total"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
