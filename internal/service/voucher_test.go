package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/apparel_shop/internal/testutil"
)

func TestVoucher_EligibilityChain(t *testing.T) {
	e := newEnv(t)
	now := time.Now().UTC()
	maxOrder := int64(500000)

	e.seed.Voucher(testutil.VoucherOpts{Code: "OK", Percent: "12.5", Minimum: 10000, Maximum: &maxOrder, MaxDiscount: 30000})
	e.seed.Voucher(testutil.VoucherOpts{Code: "SOON", Percent: "10", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)})
	e.seed.Voucher(testutil.VoucherOpts{Code: "OLD", Percent: "10", Start: now.Add(-2 * time.Hour), End: now.Add(-time.Hour)})
	off := e.seed.Voucher(testutil.VoucherOpts{Code: "OFF", Percent: "10"})
	require.NoError(t, e.repo.DB.Model(&off).Update("is_active", false).Error)
	full := e.seed.Voucher(testutil.VoucherOpts{Code: "FULL", Percent: "10", Limit: 1})
	require.NoError(t, e.repo.DB.Model(&full).Update("used_count", 1).Error)

	user := uuid.New()
	tests := []struct {
		name  string
		code  string
		total int64
		want  error
		disc  int64
	}{
		{"eligible", "OK", 100000, nil, 12500},
		{"case insensitive", "ok", 100000, nil, 12500},
		{"capped", "OK", 400000, nil, 30000},
		{"below minimum", "OK", 9999, ErrVoucherBelowMinimum, 0},
		{"above maximum", "OK", 500001, ErrVoucherAboveMaximum, 0},
		{"not started", "SOON", 100000, ErrVoucherNotStarted, 0},
		{"expired", "OLD", 100000, ErrVoucherExpired, 0},
		{"inactive", "OFF", 100000, ErrVoucherInactive, 0},
		{"limit reached", "FULL", 100000, ErrVoucherLimitReached, 0},
		{"unknown", "NOPE", 100000, ErrVoucherNotFound, 0},
		{"blank", "  ", 100000, ErrValidation, 0},
		{"negative total", "OK", -1, ErrValidation, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.vouchers.CheckUsage(e.ctx, tt.code, user, tt.total, now)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.disc, got.Discount)
		})
	}
}

func TestVoucher_CheckUsageIsReadOnly(t *testing.T) {
	e := newEnv(t)
	e.seed.Voucher(testutil.VoucherOpts{Code: "PEEK", Percent: "10", Limit: 1})

	for range 3 {
		_, err := e.vouchers.CheckUsage(e.ctx, "PEEK", uuid.New(), 100000, time.Now())
		require.NoError(t, err)
	}
	v, err := e.repo.GetVoucherByCode(e.ctx, "PEEK")
	require.NoError(t, err)
	assert.Zero(t, v.UsedCount)
}

func TestVoucher_OneTimePerUser(t *testing.T) {
	e := newEnv(t)
	e.seed.Voucher(testutil.VoucherOpts{Code: "ONCE", Percent: "10", OneTime: true})
	user := uuid.New()
	now := time.Now()

	discount, v, err := e.vouchers.Apply(e.ctx, "ONCE", user, uuid.New(), 100000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), discount)

	_, err = e.vouchers.CheckUsage(e.ctx, "ONCE", user, 100000, now)
	assert.ErrorIs(t, err, ErrVoucherAlreadyUsed)

	_, _, err = e.vouchers.Apply(e.ctx, "ONCE", uuid.New(), uuid.New(), 100000, now)
	require.NoError(t, err)

	stored, err := e.repo.GetVoucherByCode(e.ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.UsedCount)
	assert.Equal(t, v.ID, stored.ID)
}
