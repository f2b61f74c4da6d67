package models

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

var nextStatus = map[OrderStatus]OrderStatus{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// Next is the single forward step from s, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	n, ok := nextStatus[s]
	return n, ok
}

// CanTransition reports whether to is reachable from s in one move.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if to == StatusCancelled {
		return s.Cancellable()
	}
	n, ok := s.Next()
	return ok && n == to
}

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// CanSetPayment covers manual payment overrides. Refunds are only legal on
// cancelled orders.
func CanSetPayment(status OrderStatus, from, to PaymentStatus) bool {
	switch {
	case from == PaymentUnpaid && to == PaymentPaid:
		return status != StatusCancelled
	case from == PaymentPaid && to == PaymentRefunded:
		return status == StatusCancelled
	}
	return false
}
