package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	if err := r.DB.WithContext(ctx).Preload("Items").First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// OpenCart returns the user's open cart, creating it on first use.
func (r *GormRepo) OpenCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	err := r.DB.WithContext(ctx).Preload("Items").Where("open_key = ?", userID).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	key := userID
	c = models.Cart{UserID: userID, OpenKey: &key}
	if err := r.DB.WithContext(ctx).Create(&c).Error; err != nil {
		if !IsDuplicate(err) {
			return nil, err
		}
		c = models.Cart{}
		if err := r.DB.WithContext(ctx).Preload("Items").Where("open_key = ?", userID).First(&c).Error; err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (r *GormRepo) touchCart(tx *gorm.DB, cartID uuid.UUID) error {
	return tx.Model(&models.Cart{}).Where("id = ?", cartID).UpdateColumn("updated_at", time.Now().UTC()).Error
}

// AddCartItem increments an existing line or inserts a new one, refreshing
// the price snapshot either way.
func (r *GormRepo) AddCartItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND variant_id = ?", item.CartID, item.VariantID).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity + ?", item.Quantity),
				"unit_price": item.UnitPrice,
				"line_total": gorm.Expr("(quantity + ?) * ?", item.Quantity, item.UnitPrice),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			item.LineTotal = item.Quantity * item.UnitPrice
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		} else if err := tx.Where("cart_id = ? AND variant_id = ?", item.CartID, item.VariantID).First(item).Error; err != nil {
			return err
		}
		return r.touchCart(tx, item.CartID)
	})
}

func (r *GormRepo) SetCartItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item.LineTotal = item.Quantity * item.UnitPrice
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND variant_id = ?", item.CartID, item.VariantID).
			Updates(map[string]any{
				"quantity":   item.Quantity,
				"unit_price": item.UnitPrice,
				"line_total": item.LineTotal,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("cart_id = ? AND variant_id = ?", item.CartID, item.VariantID).First(item).Error; err != nil {
			return err
		}
		return r.touchCart(tx, item.CartID)
	})
}

func (r *GormRepo) RemoveCartItem(ctx context.Context, cartID, variantID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("cart_id = ? AND variant_id = ?", cartID, variantID).Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return r.touchCart(tx, cartID)
	})
}

func (r *GormRepo) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return r.touchCart(tx, cartID)
	})
}

// FlipCart marks the cart as checked out. It reports false when another
// checkout already flipped it.
func (r *GormRepo) FlipCart(ctx context.Context, cartID, orderID uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND order_id IS NULL", cartID).
		Updates(map[string]any{
			"order_id":   orderID,
			"open_key":   nil,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
