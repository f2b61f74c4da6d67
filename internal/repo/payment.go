package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

// RecordCallback stores the idempotency key. False means the key was
// already seen. The insert never fails on a seen key, so the surrounding
// transaction stays usable on postgres.
func (r *GormRepo) RecordCallback(ctx context.Context, cb *models.PaymentCallback) (bool, error) {
	res := insertCallback(r.DB.WithContext(ctx), cb)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func insertCallback(db *gorm.DB, cb *models.PaymentCallback) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(cb)
}

func (r *GormRepo) CountCallbacks(ctx context.Context, orderCode string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.PaymentCallback{}).Where("order_code = ?", orderCode).Count(&n).Error
	return n, err
}
