package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/apparel_shop/internal/gateway"
	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/repo"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
)

// Gateway is the payment provider as seen by checkout and cancellation.
type Gateway interface {
	PaymentURL(orderCode string, amount int64) (string, error)
	Charge(ctx context.Context, orderCode string, amount int64) (*gateway.ChargeResult, error)
	Refund(ctx context.Context, orderCode string, amount int64) error
}

type CheckoutRequest struct {
	CartID          uuid.UUID
	UserID          uuid.UUID
	AddressID       uuid.UUID
	PaymentMethodID uuid.UUID
	VoucherCode     string
}

type CheckoutResult struct {
	Order      *models.Order `json:"order"`
	PaymentURL string        `json:"payment_url,omitempty"`
}

type CheckoutService struct {
	Repo     *repo.GormRepo
	Stock    *StockService
	Vouchers *VoucherService
	Payments *PaymentService
	Shipping ShippingPolicy
	Codes    *OrderCoder
	Gateway  Gateway
	Timeout  time.Duration
	Now      func() time.Time
}

func (s *CheckoutService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Checkout turns the user's cart into a pending order. It ignores the
// caller's cancellation: once stock is touched the flow runs to completion
// or is fully compensated.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	switch {
	case req.CartID == uuid.Nil:
		return nil, fmt.Errorf("%w: cart_id required", ErrValidation)
	case req.UserID == uuid.Nil:
		return nil, fmt.Errorf("%w: user_id required", ErrValidation)
	case req.AddressID == uuid.Nil:
		return nil, fmt.Errorf("%w: address_id required", ErrValidation)
	case req.PaymentMethodID == uuid.Nil:
		return nil, fmt.Errorf("%w: payment_method_id required", ErrValidation)
	}

	ctx = context.WithoutCancel(ctx)
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	l := logging.FromContext(ctx).With("component", "checkout", "cart_id", req.CartID, "user_id", req.UserID)
	ctx = logging.IntoContext(ctx, l)

	cart, addr, pm, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}

	sg := newSaga(l)
	order, err := s.place(ctx, sg, cart, addr, pm, strings.TrimSpace(req.VoucherCode))
	if err != nil {
		sg.compensate(ctx)
		l.Warn("checkout_failed", "error", err)
		return nil, err
	}
	l.Info("checkout_placed", "order_id", order.ID, "order_code", order.OrderCode, "final_total", order.FinalTotal)

	res := &CheckoutResult{Order: order}
	switch pm.Kind {
	case models.PaymentKindGateway:
		url, err := s.Gateway.PaymentURL(order.OrderCode, order.FinalTotal)
		if err != nil {
			l.Error("payment_url_failed", "order_code", order.OrderCode, "error", err)
		}
		res.PaymentURL = url
	case models.PaymentKindInstant:
		s.chargeNow(ctx, order)
	}

	fresh, err := s.Repo.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	res.Order = fresh
	return res, nil
}

func (s *CheckoutService) load(ctx context.Context, req CheckoutRequest) (*models.Cart, *models.Address, *models.PaymentMethod, error) {
	cart, err := s.Repo.GetCart(ctx, req.CartID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, nil, ErrCartNotFound
		}
		return nil, nil, nil, err
	}
	if cart.UserID != req.UserID {
		return nil, nil, nil, fmt.Errorf("%w: cart belongs to another user", ErrForbidden)
	}
	if cart.CheckedOut() {
		return nil, nil, nil, ErrCartCheckedOut
	}
	if len(cart.Items) == 0 {
		return nil, nil, nil, ErrCartEmpty
	}

	addr, err := s.Repo.GetAddress(ctx, req.AddressID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, nil, ErrAddressNotFound
		}
		return nil, nil, nil, err
	}
	if addr.UserID != req.UserID {
		return nil, nil, nil, fmt.Errorf("%w: address belongs to another user", ErrForbidden)
	}

	pm, err := s.Repo.GetPaymentMethod(ctx, req.PaymentMethodID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, nil, ErrPaymentMethodNotFound
		}
		return nil, nil, nil, err
	}
	if !pm.IsActive {
		return nil, nil, nil, fmt.Errorf("%w: payment method %s is inactive", ErrValidation, pm.Code)
	}
	if pm.Kind != models.PaymentKindCOD && s.Gateway == nil {
		return nil, nil, nil, fmt.Errorf("%w: payment method %s is not available", ErrValidation, pm.Code)
	}
	return cart, addr, pm, nil
}

func (s *CheckoutService) place(ctx context.Context, sg *saga, cart *models.Cart, addr *models.Address, pm *models.PaymentMethod, voucherCode string) (*models.Order, error) {
	items := append([]models.CartItem(nil), cart.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].VariantID.String() < items[j].VariantID.String() })

	for _, it := range items {
		err := sg.run(ctx, sagaStep{
			name: "reserve " + it.VariantID.String(),
			do:   func(ctx context.Context) error { return s.Stock.Reserve(ctx, it.VariantID, it.Quantity) },
			undo: func(ctx context.Context) error { return s.Stock.Restore(ctx, it.VariantID, it.Quantity) },
		})
		if err != nil {
			return nil, err
		}
	}

	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.VariantID
	}
	variants, err := s.Repo.GetVariants(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]models.PricedLine, 0, len(items))
	var total int64
	for _, it := range items {
		v, ok := variants[it.VariantID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, it.VariantID)
		}
		price := v.EffectivePrice()
		lines = append(lines, models.PricedLine{VariantID: it.VariantID, Quantity: it.Quantity, UnitPrice: price})
		total += price * it.Quantity
	}

	now := s.now()
	var (
		discount int64
		voucher  *models.Voucher
	)
	if voucherCode != "" {
		err := sg.run(ctx, sagaStep{
			name: "voucher " + voucherCode,
			do: func(ctx context.Context) error {
				var err error
				discount, voucher, err = s.Vouchers.Apply(ctx, voucherCode, cart.UserID, cart.ID, total, now)
				return err
			},
			undo: func(ctx context.Context) error { return s.Vouchers.Release(ctx, voucher.ID, cart.ID) },
		})
		if err != nil {
			return nil, err
		}
	}

	code, err := s.Codes.Next(ctx, now)
	if err != nil {
		return nil, err
	}

	params := models.FinalizeParams{
		OrderCode:     code,
		Address:       *addr,
		PaymentMethod: *pm,
		Lines:         lines,
		Discount:      discount,
		ShippingFee:   s.Shipping.Fee(addr.City),
		PlacedAt:      now,
	}
	if voucher != nil {
		id := voucher.ID
		params.VoucherID = &id
		params.VoucherCode = voucher.Code
	}

	order, err := models.Finalize(*cart, params)
	if err != nil {
		if errors.Is(err, models.ErrCartFinalized) {
			return nil, ErrCartCheckedOut
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	customer := Actor{UserID: cart.UserID, Role: RoleUser}
	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		flipped, err := tx.FlipCart(ctx, cart.ID, order.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return ErrCartCheckedOut
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}
		if err := tx.AddHistory(ctx, historyRow(order.ID, customer, models.FieldStatus, "", string(order.Status), "order placed")); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, order.ID.String(), EventOrderPlaced, orderEvent(&order, "", string(order.Status), now))
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// chargeNow confirms an instant payment. Any failure leaves the order
// pending/unpaid for a later callback or a retry by the customer.
func (s *CheckoutService) chargeNow(ctx context.Context, order *models.Order) {
	l := logging.FromContext(ctx).With("order_code", order.OrderCode)

	res, err := s.Gateway.Charge(ctx, order.OrderCode, order.FinalTotal)
	if err != nil {
		if errors.Is(err, gateway.ErrUnknownOutcome) {
			l.Warn("instant_charge_unknown_outcome", "error", err)
			return
		}
		l.Error("instant_charge_failed", "error", err)
		return
	}
	if !res.Approved {
		l.Info("instant_charge_declined", "transaction_no", res.TransactionNo)
		return
	}

	rec, err := s.Payments.Confirm(ctx, SourceSync, &gateway.Notification{
		OrderCode:     order.OrderCode,
		Amount:        order.FinalTotal,
		Outcome:       models.OutcomeSuccess,
		TransactionNo: res.TransactionNo,
	})
	if err != nil {
		l.Error("instant_charge_record_failed", "error", err)
		return
	}
	l.Info("instant_charge_recorded", "applied", rec.Applied, "duplicate", rec.Duplicate)
}
