package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

type OrderFilter struct {
	UserID *uuid.UUID
	Status models.OrderStatus
	Limit  int
	Offset int
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("variant_id") }).
		First(&o, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("variant_id") }).
		First(&o, "order_code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}

	var orders []models.Order
	if err := q.Preload("Items").Order("order_placed_at DESC").Limit(limit).Offset(f.Offset).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderVersioned applies fields only if the stored version still
// equals version, bumping it. False means a concurrent writer won.
func (r *GormRepo) UpdateOrderVersioned(ctx context.Context, id uuid.UUID, version int64, fields map[string]any) (bool, error) {
	set := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		set[k] = v
	}
	set["version"] = gorm.Expr("version + 1")
	set["updated_at"] = time.Now().UTC()

	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", id, version).
		UpdateColumns(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkOrderPaid flips unpaid to paid. False means the order was not unpaid.
func (r *GormRepo) MarkOrderPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentUnpaid).
		UpdateColumns(map[string]any{
			"payment_status": models.PaymentPaid,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AdvanceRestored records qty units of stock given back for one line,
// provided nobody moved the counter since it was observed.
func (r *GormRepo) AdvanceRestored(ctx context.Context, itemID uuid.UUID, observed, qty int64) (bool, error) {
	return CompareAndAdd(ctx, r.DB, &models.OrderItem{}, itemID, "restored_quantity", qty,
		Where("restored_quantity = ?", observed),
		Where("restored_quantity + ? <= quantity", qty))
}

func (r *GormRepo) SetLineTotal(ctx context.Context, itemID uuid.UUID, lineTotal int64) error {
	return r.DB.WithContext(ctx).Model(&models.OrderItem{}).Where("id = ?", itemID).
		UpdateColumn("line_total", lineTotal).Error
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) AddHistory(ctx context.Context, rows ...models.OrderHistory) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&rows).Error
}

func (r *GormRepo) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error) {
	var rows []models.OrderHistory
	err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at, id").Find(&rows).Error
	return rows, err
}
