package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

type AddItemRequest struct {
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int64     `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// CheckoutRequest targets the caller's open cart unless CartID names one.
type CheckoutRequest struct {
	CartID          *uuid.UUID `json:"cart_id,omitempty"`
	AddressID       uuid.UUID  `json:"address_id"`
	PaymentMethodID uuid.UUID  `json:"payment_method_id"`
	VoucherCode     string     `json:"voucher_code,omitempty"`
}

type StatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type PaymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

type OrderList struct {
	Orders []models.Order `json:"orders"`
	Page   int            `json:"page"`
	Size   int            `json:"size"`
}

type StockErrorResponse struct {
	Message   string    `json:"message"`
	VariantID uuid.UUID `json:"variant_id"`
	Requested int64     `json:"requested"`
	Available int64     `json:"available"`
}

// IPNResponse is the acknowledgement body the gateway expects from the
// server-to-server notification.
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

const (
	RspOK              = "00"
	RspOrderNotFound   = "01"
	RspAlreadyApplied  = "02"
	RspInvalidAmount   = "04"
	RspInvalidChecksum = "97"
	RspUnknown         = "99"
)
