package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/repo"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
)

type IssueCode string

const (
	IssueLineTotalMismatch     IssueCode = "line_total_mismatch"
	IssueTotalMismatch         IssueCode = "total_mismatch"
	IssueDiscountExceedsTotal  IssueCode = "discount_exceeds_total"
	IssueFinalTotalMismatch    IssueCode = "final_total_mismatch"
	IssueStockNotRestored      IssueCode = "stock_not_restored"
	IssueRefundMissing         IssueCode = "refund_missing"
	IssueDeliveredUnpaid       IssueCode = "delivered_unpaid"
	IssueRestoredOnActiveOrder IssueCode = "restored_on_active_order"
)

type Issue struct {
	Code     IssueCode `json:"code"`
	Message  string    `json:"message"`
	Fixable  bool      `json:"fixable"`
	Expected int64     `json:"expected,omitempty"`
	Actual   int64     `json:"actual,omitempty"`
}

type Report struct {
	OrderID   uuid.UUID `json:"order_id"`
	OrderCode string    `json:"order_code"`
	OK        bool      `json:"ok"`
	Issues    []Issue   `json:"issues"`
}

type AuditService struct {
	Repo   *repo.GormRepo
	Orders *OrderService
}

func inspect(o *models.Order) []Issue {
	issues := []Issue{}

	for _, it := range o.Items {
		if want := it.UnitPrice * it.Quantity; it.LineTotal != want {
			issues = append(issues, Issue{
				Code:     IssueLineTotalMismatch,
				Message:  fmt.Sprintf("line %s: %d x %d != %d", it.VariantID, it.UnitPrice, it.Quantity, it.LineTotal),
				Expected: want,
				Actual:   it.LineTotal,
			})
		}
	}

	if sum := o.LinesTotal(); o.Total != sum {
		issues = append(issues, Issue{Code: IssueTotalMismatch, Message: "total differs from sum of lines", Fixable: true, Expected: sum, Actual: o.Total})
	}
	if o.DiscountAmount > o.Total {
		issues = append(issues, Issue{Code: IssueDiscountExceedsTotal, Message: "discount larger than total", Fixable: true, Expected: o.Total, Actual: o.DiscountAmount})
	}
	if want := o.ExpectedFinal(); o.FinalTotal != want {
		issues = append(issues, Issue{Code: IssueFinalTotalMismatch, Message: "final total differs from total - discount + shipping", Fixable: true, Expected: want, Actual: o.FinalTotal})
	}

	var missing, restoredActive int64
	for _, it := range o.Items {
		missing += it.Quantity - it.RestoredQuantity
		restoredActive += it.RestoredQuantity
	}
	if o.Status == models.StatusCancelled && missing > 0 {
		issues = append(issues, Issue{Code: IssueStockNotRestored, Message: fmt.Sprintf("%d units never restored", missing), Fixable: true, Expected: 0, Actual: missing})
	}
	if o.Status != models.StatusCancelled && restoredActive > 0 {
		issues = append(issues, Issue{Code: IssueRestoredOnActiveOrder, Message: fmt.Sprintf("%d units restored on a live order", restoredActive), Actual: restoredActive})
	}

	if o.Status == models.StatusCancelled && o.PaymentStatus == models.PaymentPaid {
		issues = append(issues, Issue{Code: IssueRefundMissing, Message: "cancelled order is still marked paid"})
	}
	if o.Status == models.StatusDelivered && o.PaymentStatus == models.PaymentUnpaid && o.PaymentKind != models.PaymentKindCOD {
		issues = append(issues, Issue{Code: IssueDeliveredUnpaid, Message: "delivered without payment on a prepaid method"})
	}
	return issues
}

func report(o *models.Order) *Report {
	issues := inspect(o)
	return &Report{OrderID: o.ID, OrderCode: o.OrderCode, OK: len(issues) == 0, Issues: issues}
}

// Validate never fails for an inconsistent order, only for a missing one.
func (s *AuditService) Validate(ctx context.Context, id uuid.UUID) (*Report, error) {
	o, err := s.Orders.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return report(o), nil
}

// AutoFix repairs totals and missing stock restorations. Payment issues are
// left for a human.
func (s *AuditService) AutoFix(ctx context.Context, id uuid.UUID, actor Actor) (*models.Order, error) {
	return retryOnce(ctx, func() (*models.Order, error) {
		return s.autoFix(ctx, id, actor)
	})
}

func (s *AuditService) autoFix(ctx context.Context, id uuid.UUID, actor Actor) (*models.Order, error) {
	o, err := s.Orders.load(ctx, id)
	if err != nil {
		return nil, err
	}

	fixable := false
	for _, is := range inspect(o) {
		if is.Fixable {
			fixable = true
			break
		}
	}
	if !fixable {
		return o, nil
	}

	total := o.LinesTotal()
	discount := min(o.DiscountAmount, total)
	final := total - discount + o.ShippingFee
	fields := map[string]any{}
	if total != o.Total {
		fields["total"] = total
	}
	if discount != o.DiscountAmount {
		fields["discount_amount"] = discount
	}
	if final != o.FinalTotal {
		fields["final_total"] = final
	}

	l := logging.FromContext(ctx).With("order_id", o.ID, "order_code", o.OrderCode)
	now := s.Orders.now()
	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		ok, err := tx.UpdateOrderVersioned(ctx, o.ID, o.Version, fields)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order %s changed concurrently", ErrConflict, o.ID)
		}

		var rows []models.OrderHistory
		if len(fields) > 0 {
			rows = append(rows, historyRow(o.ID, actor, models.FieldTotals,
				fmt.Sprintf("%d/%d/%d", o.Total, o.DiscountAmount, o.FinalTotal),
				fmt.Sprintf("%d/%d/%d", total, discount, final), "auto-fix"))
		}
		if o.Status == models.StatusCancelled {
			restored, err := restoreLines(ctx, tx, o.Items, l)
			if err != nil {
				return err
			}
			if restored > 0 {
				rows = append(rows, historyRow(o.ID, actor, models.FieldStock, "", fmt.Sprint(restored), "auto-fix restored units"))
			}
		}
		if err := tx.AddHistory(ctx, rows...); err != nil {
			return err
		}

		fixed := *o
		fixed.Total, fixed.DiscountAmount, fixed.FinalTotal = total, discount, final
		return tx.AppendEvent(ctx, o.ID.String(), EventOrderAutoFixed, orderEvent(&fixed, "", "", now))
	})
	if err != nil {
		return nil, err
	}
	l.Info("order_auto_fixed", "fields", len(fields), "actor_role", actor.Role)
	return s.Orders.load(ctx, o.ID)
}
