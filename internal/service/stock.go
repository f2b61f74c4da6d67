package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/apparel_shop/internal/repo"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
)

type StockService struct {
	Repo *repo.GormRepo
}

type StockLine struct {
	VariantID uuid.UUID
	Quantity  int64
}

// Reserve takes qty units in one conditional statement. On a miss it reads
// the variant once to report why.
func (s *StockService) Reserve(ctx context.Context, variantID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	ok, err := s.Repo.ReserveStock(ctx, variantID, qty)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	v, err := s.Repo.GetVariant(ctx, variantID)
	if err != nil {
		if repo.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrVariantNotFound, variantID)
		}
		return err
	}
	if !v.IsActive {
		return fmt.Errorf("%w: %s", ErrVariantUnavailable, variantID)
	}
	return &StockError{VariantID: variantID, Requested: qty, Available: v.Stock}
}

func (s *StockService) Restore(ctx context.Context, variantID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return nil
	}
	ok, err := s.Repo.RestoreStock(ctx, variantID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrVariantNotFound, variantID)
	}
	return nil
}

// ReserveAll reserves lines in order. If one fails, every earlier line is
// restored before the error is returned.
func (s *StockService) ReserveAll(ctx context.Context, lines []StockLine) error {
	l := logging.FromContext(ctx)

	for i, line := range lines {
		if err := s.Reserve(ctx, line.VariantID, line.Quantity); err != nil {
			for j := i - 1; j >= 0; j-- {
				if rerr := s.Restore(ctx, lines[j].VariantID, lines[j].Quantity); rerr != nil {
					l.Error("stock_compensation_failed", "variant_id", lines[j].VariantID, "quantity", lines[j].Quantity, "error", rerr)
				}
			}
			return err
		}
	}
	return nil
}
