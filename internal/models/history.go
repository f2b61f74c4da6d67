package models

import (
	"time"

	"github.com/google/uuid"
)

type HistoryField string

const (
	FieldStatus        HistoryField = "status"
	FieldPaymentStatus HistoryField = "payment_status"
	FieldTotals        HistoryField = "totals"
	FieldStock         HistoryField = "stock"
)

type OrderHistory struct {
	ID        uuid.UUID    `gorm:"primaryKey"     json:"id"`
	OrderID   uuid.UUID    `gorm:"index;not null" json:"order_id"`
	ActorID   *uuid.UUID   `json:"actor_id,omitempty"`
	ActorRole string       `gorm:"not null"       json:"actor_role"`
	Field     HistoryField `gorm:"not null"       json:"field"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `gorm:"index"          json:"created_at"`
}

func (OrderHistory) TableName() string {
	return "order_history"
}
