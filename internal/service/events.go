package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

const (
	EventOrderPlaced    = "order.placed"
	EventStatusChanged  = "order.status_changed"
	EventPaymentChanged = "order.payment_status_changed"
	EventOrderDeleted   = "order.deleted"
	EventOrderAutoFixed = "order.auto_fixed"
)

type OrderEvent struct {
	OrderID       uuid.UUID            `json:"order_id"`
	OrderCode     string               `json:"order_code"`
	UserID        uuid.UUID            `json:"user_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	FinalTotal    int64                `json:"final_total"`
	From          string               `json:"from,omitempty"`
	To            string               `json:"to,omitempty"`
	At            time.Time            `json:"at"`
}

func orderEvent(o *models.Order, from, to string, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		OrderCode:     o.OrderCode,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		FinalTotal:    o.FinalTotal,
		From:          from,
		To:            to,
		At:            at,
	}
}

func historyRow(orderID uuid.UUID, actor Actor, field models.HistoryField, from, to, note string) models.OrderHistory {
	row := models.OrderHistory{
		OrderID:   orderID,
		ActorRole: actor.Role,
		Field:     field,
		From:      from,
		To:        to,
		Note:      note,
	}
	if actor.UserID != uuid.Nil {
		id := actor.UserID
		row.ActorID = &id
	}
	return row
}
