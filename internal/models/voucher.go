package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Voucher struct {
	ID                    uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	Code                  string          `gorm:"uniqueIndex;not null"        json:"code"`
	DiscountPercent       decimal.Decimal `gorm:"type:numeric(5,2);not null"  json:"discount_percent"`
	MinimumOrderValue     int64           `gorm:"not null;default:0"          json:"minimum_order_value"`
	MaximumOrderValue     *int64          `json:"maximum_order_value,omitempty"`
	MaximumDiscountAmount int64           `gorm:"not null;default:0"          json:"maximum_discount_amount"`
	StartDate             time.Time       `gorm:"not null"                    json:"start_date"`
	EndDate               time.Time       `gorm:"not null"                    json:"end_date"`
	IsActive              bool            `gorm:"not null;default:true"       json:"is_active"`
	UsageLimit            int64           `gorm:"not null"                    json:"usage_limit"`
	IsOneTimePerUser      bool            `gorm:"not null;default:false"      json:"is_one_time_per_user"`
	UsedCount             int64           `gorm:"not null;default:0"          json:"used_count"`
}

func (Voucher) TableName() string {
	return "vouchers"
}

// Discount is floor(total * percent / 100), capped by MaximumDiscountAmount.
func (v Voucher) Discount(total int64) int64 {
	raw := decimal.NewFromInt(total).
		Mul(v.DiscountPercent).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
	if raw < 0 {
		raw = 0
	}
	if raw > v.MaximumDiscountAmount {
		return max(v.MaximumDiscountAmount, 0)
	}
	return raw
}

// VoucherRedemption is one use of a voucher by a cart. OneTimeKey carries the
// user id for one-time vouchers so the unique index rejects a second use.
type VoucherRedemption struct {
	ID         uuid.UUID  `gorm:"primaryKey"                                   json:"id"`
	VoucherID  uuid.UUID  `gorm:"uniqueIndex:idx_voucher_cart;uniqueIndex:idx_voucher_one_time;not null" json:"voucher_id"`
	UserID     uuid.UUID  `gorm:"index;not null"                               json:"user_id"`
	CartID     uuid.UUID  `gorm:"uniqueIndex:idx_voucher_cart;not null"        json:"cart_id"`
	OneTimeKey *uuid.UUID `gorm:"uniqueIndex:idx_voucher_one_time"             json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (VoucherRedemption) TableName() string {
	return "voucher_redemptions"
}
