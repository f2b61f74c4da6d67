package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Skotchmaster/apparel_shop/internal/gateway"
	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/repo"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
)

const (
	SourceReturn  = "return"
	SourceIPN     = "ipn"
	SourceWebhook = "webhook"
	SourceSync    = "sync"
)

// Receipt is the reconciler's answer to one callback. Rejected is set when
// the callback was refused; the order is untouched in that case.
type Receipt struct {
	Gateway       string                `json:"gateway"`
	OrderCode     string                `json:"order_code,omitempty"`
	Outcome       models.PaymentOutcome `json:"outcome,omitempty"`
	Duplicate     bool                  `json:"duplicate"`
	Applied       bool                  `json:"applied"`
	PaymentStatus models.PaymentStatus  `json:"payment_status,omitempty"`
	Rejected      error                 `json:"-"`
	Reason        string                `json:"reason,omitempty"`
}

func (r *Receipt) Accepted() bool {
	return r.Rejected == nil
}

type PaymentService struct {
	Repo      *repo.GormRepo
	Verifiers map[string]gateway.Verifier
	Now       func() time.Time
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Ingest verifies and applies a gateway callback. The error return is for
// infrastructure faults only.
func (s *PaymentService) Ingest(ctx context.Context, gatewayName string, raw gateway.RawCallback) (*Receipt, error) {
	l := logging.FromContext(ctx).With("component", "payment_reconciler", "gateway", gatewayName, "source", raw.Source)

	v, ok := s.Verifiers[gatewayName]
	if !ok {
		return s.reject(l, &Receipt{Gateway: gatewayName}, ErrUnknownGateway), nil
	}
	n, err := v.Verify(raw)
	if err != nil {
		return s.reject(l, &Receipt{Gateway: gatewayName}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)), nil
	}
	return s.apply(ctx, gatewayName, raw.Source, n)
}

// Confirm applies an outcome the shop learned first-hand, such as a
// synchronous charge response.
func (s *PaymentService) Confirm(ctx context.Context, source string, n *gateway.Notification) (*Receipt, error) {
	return s.apply(ctx, "instant", source, n)
}

func (s *PaymentService) apply(ctx context.Context, gatewayName, source string, n *gateway.Notification) (*Receipt, error) {
	l := logging.FromContext(ctx).With("component", "payment_reconciler", "gateway", gatewayName, "source", source, "order_code", n.OrderCode)
	rec := &Receipt{Gateway: gatewayName, OrderCode: n.OrderCode, Outcome: n.Outcome}

	order, err := s.Repo.GetOrderByCode(ctx, n.OrderCode)
	if err != nil {
		if repo.IsNotFound(err) {
			return s.reject(l, rec, ErrOrderNotFound), nil
		}
		return nil, err
	}
	if n.Amount != order.FinalTotal {
		return s.reject(l, rec, fmt.Errorf("%w: got %d, want %d", ErrAmountMismatch, n.Amount, order.FinalTotal)), nil
	}

	now := s.now()
	gw := Actor{Role: RoleGateway}
	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		fresh, err := tx.RecordCallback(ctx, &models.PaymentCallback{
			IdempotencyKey: models.CallbackKey(n.OrderCode, n.Outcome),
			OrderCode:      n.OrderCode,
			Outcome:        n.Outcome,
			Source:         source,
			TransactionNo:  n.TransactionNo,
			Amount:         n.Amount,
			ReceivedAt:     now,
		})
		if err != nil {
			return err
		}
		if !fresh {
			rec.Duplicate = true
			return nil
		}
		if n.Outcome != models.OutcomeSuccess {
			return tx.AddHistory(ctx, historyRow(order.ID, gw, models.FieldPaymentStatus,
				string(order.PaymentStatus), string(order.PaymentStatus), "payment failed at "+gatewayName))
		}

		changed, err := tx.MarkOrderPaid(ctx, order.ID)
		if err != nil || !changed {
			return err
		}
		rec.Applied = true
		paid := *order
		paid.PaymentStatus = models.PaymentPaid
		if err := tx.AddHistory(ctx, historyRow(order.ID, gw, models.FieldPaymentStatus,
			string(models.PaymentUnpaid), string(models.PaymentPaid), gatewayName+" "+n.TransactionNo)); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, order.ID.String(), EventPaymentChanged,
			orderEvent(&paid, string(models.PaymentUnpaid), string(models.PaymentPaid), now))
	})
	if err != nil {
		return nil, err
	}

	current, err := s.Repo.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	rec.PaymentStatus = current.PaymentStatus
	l.Info("payment_callback_processed", "outcome", n.Outcome, "applied", rec.Applied, "duplicate", rec.Duplicate)
	return rec, nil
}

func (s *PaymentService) reject(l *slog.Logger, rec *Receipt, reason error) *Receipt {
	rec.Rejected = reason
	rec.Reason = reason.Error()
	l.Warn("payment_callback_rejected", "order_code", rec.OrderCode, "reason", reason)
	return rec
}
