package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

var (
	ErrUsageExhausted  = errors.New("voucher usage exhausted")
	ErrAlreadyRedeemed = errors.New("voucher already redeemed")
)

func (r *GormRepo) GetVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var v models.Voucher
	err := r.DB.WithContext(ctx).
		Where("LOWER(code) = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormRepo) CreateVoucher(ctx context.Context, v *models.Voucher) error {
	return r.DB.WithContext(ctx).Create(v).Error
}

func (r *GormRepo) HasOneTimeRedemption(ctx context.Context, voucherID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.VoucherRedemption{}).
		Where("voucher_id = ? AND one_time_key = ?", voucherID, userID).
		Count(&n).Error
	return n > 0, err
}

// Redeem bumps used_count under the limit and records the redemption in the
// same transaction. The unique indexes on voucher_redemptions reject a second
// use by a one-time user or by the same cart.
func (r *GormRepo) Redeem(ctx context.Context, v *models.Voucher, userID, cartID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := CompareAndAdd(ctx, tx, &models.Voucher{}, v.ID, "used_count", 1,
			Where("is_active = ?", true),
			Where("used_count < usage_limit"))
		if err != nil {
			return err
		}
		if !ok {
			return ErrUsageExhausted
		}

		red := models.VoucherRedemption{VoucherID: v.ID, UserID: userID, CartID: cartID}
		if v.IsOneTimePerUser {
			key := userID
			red.OneTimeKey = &key
		}
		if err := tx.Create(&red).Error; err != nil {
			if IsDuplicate(err) {
				return ErrAlreadyRedeemed
			}
			return err
		}
		return nil
	})
}

// ReleaseRedemption undoes Redeem for one cart. It is a no-op when nothing
// was redeemed.
func (r *GormRepo) ReleaseRedemption(ctx context.Context, voucherID, cartID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("voucher_id = ? AND cart_id = ?", voucherID, cartID).Delete(&models.VoucherRedemption{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		_, err := CompareAndDecrement(ctx, tx, &models.Voucher{}, voucherID, "used_count", 1, 0)
		return err
	})
}
