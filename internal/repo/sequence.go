package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

// NextOrderSeq returns the next value of the per-day order sequence.
func (r *GormRepo) NextOrderSeq(ctx context.Context, day string) (int64, error) {
	var (
		value int64
		err   error
	)
	for attempt := 0; attempt < 2; attempt++ {
		value, err = r.nextOrderSeq(ctx, day)
		if !IsDuplicate(err) {
			return value, err
		}
	}
	return 0, err
}

func (r *GormRepo) nextOrderSeq(ctx context.Context, day string) (int64, error) {
	var seq models.OrderCodeSequence
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.OrderCodeSequence{}).Where("day = ?", day).
			UpdateColumn("value", gorm.Expr("value + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			seq = models.OrderCodeSequence{Day: day, Value: 1}
			return tx.Create(&seq).Error
		}
		return tx.First(&seq, "day = ?", day).Error
	})
	if err != nil {
		return 0, err
	}
	return seq.Value, nil
}
