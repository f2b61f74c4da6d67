package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCartFinalized = errors.New("cart already finalized")
	ErrNoLines       = errors.New("order has no lines")
	ErrBadTotals     = errors.New("inconsistent totals")
)

type Order struct {
	ID              uuid.UUID     `gorm:"primaryKey"           json:"id"`
	OrderCode       string        `gorm:"uniqueIndex;not null" json:"order_code"`
	CartID          uuid.UUID     `gorm:"uniqueIndex;not null" json:"cart_id"`
	UserID          uuid.UUID     `gorm:"index;not null"       json:"user_id"`
	AddressID       uuid.UUID     `gorm:"not null"             json:"address_id"`
	ShipName        string        `json:"ship_name"`
	ShipPhone       string        `json:"ship_phone"`
	ShipLine        string        `json:"ship_line"`
	ShipCity        string        `json:"ship_city"`
	PaymentMethodID uuid.UUID     `gorm:"not null"             json:"payment_method_id"`
	PaymentKind     PaymentKind   `gorm:"not null"             json:"payment_kind"`
	VoucherID       *uuid.UUID    `json:"voucher_id,omitempty"`
	VoucherCode     string        `json:"voucher_code,omitempty"`
	Total           int64         `gorm:"not null"             json:"total"`
	DiscountAmount  int64         `gorm:"not null"             json:"discount_amount"`
	ShippingFee     int64         `gorm:"not null"             json:"shipping_fee"`
	FinalTotal      int64         `gorm:"not null"             json:"final_total"`
	Status          OrderStatus   `gorm:"index;not null"       json:"status"`
	PaymentStatus   PaymentStatus `gorm:"index;not null"       json:"payment_status"`
	Version         int64         `gorm:"not null;default:1"   json:"version"`
	Items           []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CartUpdatedAt   time.Time     `json:"cart_updated_at"`
	OrderPlacedAt   time.Time     `gorm:"index"                json:"order_placed_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID               uuid.UUID `gorm:"primaryKey"                json:"id"`
	OrderID          uuid.UUID `gorm:"index;not null"            json:"order_id"`
	VariantID        uuid.UUID `gorm:"not null"                  json:"variant_id"`
	Quantity         int64     `gorm:"not null;check:quantity>0" json:"quantity"`
	UnitPrice        int64     `gorm:"not null"                  json:"unit_price"`
	LineTotal        int64     `gorm:"not null"                  json:"line_total"`
	RestoredQuantity int64     `gorm:"not null;default:0"        json:"restored_quantity"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// LinesTotal sums the stored line totals.
func (o Order) LinesTotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.LineTotal
	}
	return total
}

// ExpectedFinal recomputes the payable amount from the stored parts.
func (o Order) ExpectedFinal() int64 {
	return o.Total - o.DiscountAmount + o.ShippingFee
}

// PricedLine is a cart line re-priced at checkout.
type PricedLine struct {
	VariantID uuid.UUID
	Quantity  int64
	UnitPrice int64
}

type FinalizeParams struct {
	OrderCode     string
	Address       Address
	PaymentMethod PaymentMethod
	Lines         []PricedLine
	VoucherID     *uuid.UUID
	VoucherCode   string
	Discount      int64
	ShippingFee   int64
	PlacedAt      time.Time
}

// Finalize is the only way to build an Order from a Cart. The cart itself
// is not modified; persisting the flip is the repository's job.
func Finalize(cart Cart, p FinalizeParams) (Order, error) {
	if cart.CheckedOut() {
		return Order{}, ErrCartFinalized
	}
	if len(p.Lines) == 0 {
		return Order{}, ErrNoLines
	}
	if p.Discount < 0 || p.ShippingFee < 0 {
		return Order{}, fmt.Errorf("%w: negative discount or shipping fee", ErrBadTotals)
	}

	order := Order{
		ID:              uuid.New(),
		OrderCode:       p.OrderCode,
		CartID:          cart.ID,
		UserID:          cart.UserID,
		AddressID:       p.Address.ID,
		ShipName:        p.Address.FullName,
		ShipPhone:       p.Address.Phone,
		ShipLine:        p.Address.Line,
		ShipCity:        p.Address.City,
		PaymentMethodID: p.PaymentMethod.ID,
		PaymentKind:     p.PaymentMethod.Kind,
		VoucherID:       p.VoucherID,
		VoucherCode:     p.VoucherCode,
		ShippingFee:     p.ShippingFee,
		Status:          StatusPending,
		PaymentStatus:   PaymentUnpaid,
		Version:         1,
		CartUpdatedAt:   cart.UpdatedAt,
		OrderPlacedAt:   p.PlacedAt,
	}

	order.Items = make([]OrderItem, 0, len(p.Lines))
	for _, l := range p.Lines {
		if l.Quantity <= 0 || l.UnitPrice < 0 {
			return Order{}, fmt.Errorf("%w: line %s", ErrBadTotals, l.VariantID)
		}
		line := OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.UnitPrice * l.Quantity,
		}
		order.Total += line.LineTotal
		order.Items = append(order.Items, line)
	}

	order.DiscountAmount = min(p.Discount, order.Total)
	order.FinalTotal = order.ExpectedFinal()
	return order, nil
}
