package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/repo"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
	"github.com/Skotchmaster/apparel_shop/pkg/tokens"
)

const (
	RoleUser    = tokens.RoleUser
	RoleAdmin   = tokens.RoleAdmin
	RoleGateway = "gateway"
	RoleSystem  = "system"

	defaultListLimit = 20
	maxListLimit     = 100
)

type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

type ListFilter struct {
	Status models.OrderStatus
	Limit  int
	Offset int
}

type OrderService struct {
	Repo    *repo.GormRepo
	Gateway Gateway
	// RefundTimeout bounds the fire-and-forget refund call.
	RefundTimeout time.Duration
	Now           func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *OrderService) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func canRead(o *models.Order, actor Actor) error {
	if actor.IsAdmin() || o.UserID == actor.UserID {
		return nil
	}
	return fmt.Errorf("%w: order belongs to another user", ErrForbidden)
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID, actor Actor) (*models.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canRead(o, actor); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) GetByCode(ctx context.Context, code string, actor Actor) (*models.Order, error) {
	o, err := s.Repo.GetOrderByCode(ctx, code)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := canRead(o, actor); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns the actor's own orders, or every order for admins.
func (s *OrderService) List(ctx context.Context, actor Actor, f ListFilter) ([]models.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	f.Limit = min(f.Limit, maxListLimit)
	f.Offset = max(f.Offset, 0)

	rf := repo.OrderFilter{Status: f.Status, Limit: f.Limit, Offset: f.Offset}
	if !actor.IsAdmin() {
		uid := actor.UserID
		rf.UserID = &uid
	}
	return s.Repo.ListOrders(ctx, rf)
}

func (s *OrderService) History(ctx context.Context, id uuid.UUID) ([]models.OrderHistory, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return s.Repo.ListHistory(ctx, id)
}

// retryOnce reruns op with fresh state if it lost a version race.
func retryOnce(ctx context.Context, op func() (*models.Order, error)) (*models.Order, error) {
	o, err := op()
	if errors.Is(err, ErrConflict) {
		logging.FromContext(ctx).Debug("order_conflict_retry", "error", err)
		return op()
	}
	return o, err
}

// Transition moves an order's status. Users may only cancel their own
// orders; admins may move one step forward or cancel.
func (s *OrderService) Transition(ctx context.Context, id uuid.UUID, actor Actor, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	return retryOnce(ctx, func() (*models.Order, error) {
		return s.transition(ctx, id, actor, to)
	})
}

func (s *OrderService) transition(ctx context.Context, id uuid.UUID, actor Actor, to models.OrderStatus) (*models.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if o.UserID != actor.UserID {
			return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
		}
		if to != models.StatusCancelled {
			return nil, fmt.Errorf("%w: customers may only cancel", ErrForbidden)
		}
	}

	if to == models.StatusCancelled && o.Status == models.StatusCancelled {
		return o, nil
	}
	if !o.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	if to == models.StatusCancelled {
		return s.cancel(ctx, o, actor)
	}

	now := s.now()
	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		ok, err := tx.UpdateOrderVersioned(ctx, o.ID, o.Version, map[string]any{"status": to})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order %s changed concurrently", ErrConflict, o.ID)
		}
		if err := tx.AddHistory(ctx, historyRow(o.ID, actor, models.FieldStatus, string(o.Status), string(to), "")); err != nil {
			return err
		}
		moved := *o
		moved.Status = to
		return tx.AppendEvent(ctx, o.ID.String(), EventStatusChanged, orderEvent(&moved, string(o.Status), string(to), now))
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("order_status_changed", "order_id", o.ID, "from", o.Status, "to", to, "actor_role", actor.Role)
	return s.load(ctx, o.ID)
}

// cancel flips status, refund bit and stock in one transaction.
func (s *OrderService) cancel(ctx context.Context, o *models.Order, actor Actor) (*models.Order, error) {
	refund := o.PaymentStatus == models.PaymentPaid
	fields := map[string]any{"status": models.StatusCancelled}
	if refund {
		fields["payment_status"] = models.PaymentRefunded
	}

	now := s.now()
	l := logging.FromContext(ctx).With("order_id", o.ID, "order_code", o.OrderCode)
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		ok, err := tx.UpdateOrderVersioned(ctx, o.ID, o.Version, fields)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order %s changed concurrently", ErrConflict, o.ID)
		}

		restored, err := restoreLines(ctx, tx, o.Items, l)
		if err != nil {
			return err
		}

		rows := []models.OrderHistory{historyRow(o.ID, actor, models.FieldStatus, string(o.Status), string(models.StatusCancelled), "")}
		if refund {
			rows = append(rows, historyRow(o.ID, actor, models.FieldPaymentStatus, string(models.PaymentPaid), string(models.PaymentRefunded), "refund on cancel"))
		}
		if restored > 0 {
			rows = append(rows, historyRow(o.ID, actor, models.FieldStock, "", fmt.Sprint(restored), "units restored"))
		}
		if err := tx.AddHistory(ctx, rows...); err != nil {
			return err
		}

		cancelled := *o
		cancelled.Status = models.StatusCancelled
		if refund {
			cancelled.PaymentStatus = models.PaymentRefunded
		}
		if err := tx.AppendEvent(ctx, o.ID.String(), EventStatusChanged,
			orderEvent(&cancelled, string(o.Status), string(models.StatusCancelled), now)); err != nil {
			return err
		}
		if refund {
			return tx.AppendEvent(ctx, o.ID.String(), EventPaymentChanged,
				orderEvent(&cancelled, string(models.PaymentPaid), string(models.PaymentRefunded), now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.Info("order_cancelled", "refund", refund, "actor_role", actor.Role)

	if refund {
		s.refundAsync(ctx, o.OrderCode, o.FinalTotal)
	}
	return s.load(ctx, o.ID)
}

// restoreLines gives back the unrestored remainder of every line. The
// per-line counter only moves from the value it was read at, so a line is
// never restored twice.
func restoreLines(ctx context.Context, tx *repo.GormRepo, items []models.OrderItem, l *slog.Logger) (int64, error) {
	var total int64
	for _, it := range items {
		remaining := it.Quantity - it.RestoredQuantity
		if remaining <= 0 {
			continue
		}
		ok, err := tx.AdvanceRestored(ctx, it.ID, it.RestoredQuantity, remaining)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: line %s restored concurrently", ErrConflict, it.ID)
		}
		found, err := tx.RestoreStock(ctx, it.VariantID, remaining)
		if err != nil {
			return 0, err
		}
		if !found {
			l.Warn("restore_variant_missing", "variant_id", it.VariantID, "quantity", remaining)
		}
		total += remaining
	}
	return total, nil
}

func (s *OrderService) refundAsync(ctx context.Context, orderCode string, amount int64) {
	if s.Gateway == nil {
		return
	}
	l := logging.FromContext(ctx).With("order_code", orderCode)
	ctx = context.WithoutCancel(ctx)
	timeout := s.RefundTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	go func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := s.Gateway.Refund(ctx, orderCode, amount); err != nil {
			l.Error("refund_request_failed", "amount", amount, "error", err)
			return
		}
		l.Info("refund_requested", "amount", amount)
	}()
}

// SetPaymentStatus is the audited manual override for payment status.
func (s *OrderService) SetPaymentStatus(ctx context.Context, id uuid.UUID, actor Actor, to models.PaymentStatus) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrForbidden)
	}
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, to)
	}

	return retryOnce(ctx, func() (*models.Order, error) {
		o, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if o.PaymentStatus == to {
			return o, nil
		}
		if !models.CanSetPayment(o.Status, o.PaymentStatus, to) {
			return nil, fmt.Errorf("%w: payment %s -> %s with status %s", ErrInvalidTransition, o.PaymentStatus, to, o.Status)
		}

		now := s.now()
		err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
			ok, err := tx.UpdateOrderVersioned(ctx, o.ID, o.Version, map[string]any{"payment_status": to})
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: order %s changed concurrently", ErrConflict, o.ID)
			}
			if err := tx.AddHistory(ctx, historyRow(o.ID, actor, models.FieldPaymentStatus, string(o.PaymentStatus), string(to), "manual override")); err != nil {
				return err
			}
			changed := *o
			changed.PaymentStatus = to
			return tx.AppendEvent(ctx, o.ID.String(), EventPaymentChanged, orderEvent(&changed, string(o.PaymentStatus), string(to), now))
		})
		if err != nil {
			return nil, err
		}
		logging.FromContext(ctx).Info("payment_status_overridden", "order_id", o.ID, "from", o.PaymentStatus, "to", to, "actor_id", actor.UserID)
		return s.load(ctx, o.ID)
	})
}

// Delete hard-deletes a cancelled order.
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin only", ErrForbidden)
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != models.StatusCancelled {
		return fmt.Errorf("%w: only cancelled orders can be deleted", ErrInvalidTransition)
	}
	for _, is := range inspect(o) {
		if is.Code == IssueStockNotRestored {
			return fmt.Errorf("%w: stock not restored, auto-fix the order first", ErrInvalidState)
		}
	}

	now := s.now()
	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		if err := tx.DeleteOrder(ctx, o.ID); err != nil {
			if repo.IsNotFound(err) {
				return ErrOrderNotFound
			}
			return err
		}
		return tx.AppendEvent(ctx, o.ID.String(), EventOrderDeleted, orderEvent(o, string(o.Status), "", now))
	})
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("order_deleted", "order_id", o.ID, "actor_id", actor.UserID)
	return nil
}
