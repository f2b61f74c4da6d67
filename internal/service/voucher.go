package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/repo"
)

type VoucherService struct {
	Repo *repo.GormRepo
}

type VoucherCheck struct {
	Code     string `json:"code"`
	Percent  string `json:"discount_percent"`
	Total    int64  `json:"total"`
	Discount int64  `json:"discount"`
}

// evaluate runs the eligibility chain in order; the first failing rule wins.
func (s *VoucherService) evaluate(ctx context.Context, code string, userID uuid.UUID, total int64, now time.Time) (*models.Voucher, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: voucher code required", ErrValidation)
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: total must be >= 0", ErrValidation)
	}

	v, err := s.Repo.GetVoucherByCode(ctx, code)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrVoucherNotFound, code)
		}
		return nil, err
	}

	switch {
	case !v.IsActive:
		return nil, ErrVoucherInactive
	case now.Before(v.StartDate):
		return nil, ErrVoucherNotStarted
	case now.After(v.EndDate):
		return nil, ErrVoucherExpired
	case total < v.MinimumOrderValue:
		return nil, ErrVoucherBelowMinimum
	case v.MaximumOrderValue != nil && total > *v.MaximumOrderValue:
		return nil, ErrVoucherAboveMaximum
	case v.UsedCount >= v.UsageLimit:
		return nil, ErrVoucherLimitReached
	}

	if v.IsOneTimePerUser {
		used, err := s.Repo.HasOneTimeRedemption(ctx, v.ID, userID)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, ErrVoucherAlreadyUsed
		}
	}
	return v, nil
}

// CheckUsage is the read-only form of Apply.
func (s *VoucherService) CheckUsage(ctx context.Context, code string, userID uuid.UUID, total int64, now time.Time) (*VoucherCheck, error) {
	v, err := s.evaluate(ctx, code, userID, total, now)
	if err != nil {
		return nil, err
	}
	return &VoucherCheck{
		Code:     v.Code,
		Percent:  v.DiscountPercent.String(),
		Total:    total,
		Discount: v.Discount(total),
	}, nil
}

// Apply checks eligibility and redeems the voucher for cartID. The limit and
// one-time rules are enforced again by the redemption write itself, so a
// concurrent redeemer that slipped past evaluate still fails here.
func (s *VoucherService) Apply(ctx context.Context, code string, userID, cartID uuid.UUID, total int64, now time.Time) (int64, *models.Voucher, error) {
	v, err := s.evaluate(ctx, code, userID, total, now)
	if err != nil {
		return 0, nil, err
	}

	if err := s.Repo.Redeem(ctx, v, userID, cartID); err != nil {
		switch {
		case errors.Is(err, repo.ErrUsageExhausted):
			return 0, nil, ErrVoucherLimitReached
		case errors.Is(err, repo.ErrAlreadyRedeemed):
			return 0, nil, ErrVoucherAlreadyUsed
		}
		return 0, nil, err
	}
	return v.Discount(total), v, nil
}

func (s *VoucherService) Release(ctx context.Context, voucherID, cartID uuid.UUID) error {
	return s.Repo.ReleaseRedemption(ctx, voucherID, cartID)
}
