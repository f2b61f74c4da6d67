package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id required", ErrValidation)
	}
	return s.Repo.OpenCart(ctx, userID)
}

func (s *CartService) activeVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	if variantID == uuid.Nil {
		return nil, fmt.Errorf("%w: variant_id required", ErrValidation)
	}
	v, err := s.Repo.GetVariant(ctx, variantID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, variantID)
		}
		return nil, err
	}
	if !v.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrVariantUnavailable, variantID)
	}
	return v, nil
}

func quantityIn(cart *models.Cart, variantID uuid.UUID) int64 {
	for _, it := range cart.Items {
		if it.VariantID == variantID {
			return it.Quantity
		}
	}
	return 0
}

// AddItem adds qty units, refreshing the line's price snapshot. The
// resulting quantity may not exceed current stock.
func (s *CartService) AddItem(ctx context.Context, userID, variantID uuid.UUID, qty int64) (*models.Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	v, err := s.activeVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if want := quantityIn(cart, variantID) + qty; want > v.Stock {
		return nil, &StockError{VariantID: variantID, Requested: want, Available: v.Stock}
	}

	item := models.CartItem{CartID: cart.ID, VariantID: variantID, Quantity: qty, UnitPrice: v.EffectivePrice()}
	if err := s.Repo.AddCartItem(ctx, &item); err != nil {
		return nil, err
	}
	return s.Repo.GetCart(ctx, cart.ID)
}

// UpdateItem sets the line quantity; zero removes it.
func (s *CartService) UpdateItem(ctx context.Context, userID, variantID uuid.UUID, qty int64) (*models.Cart, error) {
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}
	if qty == 0 {
		return s.RemoveItem(ctx, userID, variantID)
	}
	v, err := s.activeVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if qty > v.Stock {
		return nil, &StockError{VariantID: variantID, Requested: qty, Available: v.Stock}
	}
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := models.CartItem{CartID: cart.ID, VariantID: variantID, Quantity: qty, UnitPrice: v.EffectivePrice()}
	if err := s.Repo.SetCartItem(ctx, &item); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return s.Repo.GetCart(ctx, cart.ID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, variantID uuid.UUID) (*models.Cart, error) {
	if variantID == uuid.Nil {
		return nil, fmt.Errorf("%w: variant_id required", ErrValidation)
	}
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RemoveCartItem(ctx, cart.ID, variantID); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return s.Repo.GetCart(ctx, cart.ID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.ClearCart(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.Repo.GetCart(ctx, cart.ID)
}
