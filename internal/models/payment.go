package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentOutcome string

const (
	OutcomeSuccess PaymentOutcome = "success"
	OutcomeFailure PaymentOutcome = "failure"
)

// PaymentCallback is the idempotency ledger for gateway notifications.
type PaymentCallback struct {
	ID             uuid.UUID      `gorm:"primaryKey"           json:"id"`
	IdempotencyKey string         `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	OrderCode      string         `gorm:"index;not null"       json:"order_code"`
	Outcome        PaymentOutcome `gorm:"not null"             json:"outcome"`
	Source         string         `gorm:"not null"             json:"source"`
	TransactionNo  string         `json:"transaction_no"`
	Amount         int64          `json:"amount"`
	ReceivedAt     time.Time      `json:"received_at"`
}

func (PaymentCallback) TableName() string {
	return "payment_callbacks"
}

func CallbackKey(orderCode string, outcome PaymentOutcome) string {
	return orderCode + ":" + string(outcome)
}

type OrderCodeSequence struct {
	Day   string `gorm:"primaryKey;size:8"`
	Value int64  `gorm:"not null"`
}

func (OrderCodeSequence) TableName() string {
	return "order_code_sequences"
}
