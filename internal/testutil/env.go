// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/repo"
	"github.com/Skotchmaster/apparel_shop/pkg/db"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
)

// NewRepo opens a private in-memory sqlite database with every table
// migrated.
func NewRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func Logger() *slog.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

func Context() context.Context {
	return logging.IntoContext(context.Background(), Logger())
}

type Seed struct {
	T    *testing.T
	Repo *repo.GormRepo
}

func (s Seed) Variant(price, stock int64) models.ProductVariant {
	s.T.Helper()

	v := models.ProductVariant{
		ProductID: uuid.New(),
		SKU:       "SKU-" + uuid.NewString()[:8],
		Color:     "black",
		Size:      "M",
		Price:     price,
		Stock:     stock,
		IsActive:  true,
	}
	require.NoError(s.T, s.Repo.CreateVariant(context.Background(), &v))
	return v
}

func (s Seed) Address(userID uuid.UUID, city string) models.Address {
	s.T.Helper()

	a := models.Address{UserID: userID, FullName: "Nguyen Van A", Phone: "0900000000", Line: "1 Trang Tien", City: city}
	require.NoError(s.T, s.Repo.CreateAddress(context.Background(), &a))
	return a
}

func (s Seed) PaymentMethod(kind models.PaymentKind) models.PaymentMethod {
	s.T.Helper()

	pm := models.PaymentMethod{Code: string(kind) + "-" + uuid.NewString()[:6], Name: string(kind), Kind: kind, IsActive: true}
	require.NoError(s.T, s.Repo.EnsurePaymentMethod(context.Background(), &pm))
	return pm
}

type VoucherOpts struct {
	Code        string
	Percent     string
	Minimum     int64
	Maximum     *int64
	MaxDiscount int64
	Limit       int64
	OneTime     bool
	Start, End  time.Time
}

func (s Seed) Voucher(o VoucherOpts) models.Voucher {
	s.T.Helper()

	if o.Start.IsZero() {
		o.Start = time.Now().Add(-24 * time.Hour)
	}
	if o.End.IsZero() {
		o.End = time.Now().Add(24 * time.Hour)
	}
	if o.Limit == 0 {
		o.Limit = 100
	}
	if o.MaxDiscount == 0 {
		o.MaxDiscount = 1_000_000_000
	}
	v := models.Voucher{
		Code:                  o.Code,
		DiscountPercent:       decimal.RequireFromString(o.Percent),
		MinimumOrderValue:     o.Minimum,
		MaximumOrderValue:     o.Maximum,
		MaximumDiscountAmount: o.MaxDiscount,
		StartDate:             o.Start,
		EndDate:               o.End,
		IsActive:              true,
		UsageLimit:            o.Limit,
		IsOneTimePerUser:      o.OneTime,
	}
	require.NoError(s.T, s.Repo.CreateVoucher(context.Background(), &v))
	return v
}

// Cart opens the user's cart and fills it with the given variant quantities
// priced at the variants' current effective price.
func (s Seed) Cart(userID uuid.UUID, lines map[*models.ProductVariant]int64) models.Cart {
	s.T.Helper()

	ctx := context.Background()
	cart, err := s.Repo.OpenCart(ctx, userID)
	require.NoError(s.T, err)
	for v, qty := range lines {
		item := models.CartItem{CartID: cart.ID, VariantID: v.ID, Quantity: qty, UnitPrice: v.EffectivePrice()}
		require.NoError(s.T, s.Repo.AddCartItem(ctx, &item))
	}
	cart, err = s.Repo.GetCart(ctx, cart.ID)
	require.NoError(s.T, err)
	return *cart
}

func (s Seed) Stock(variantID uuid.UUID) int64 {
	s.T.Helper()

	v, err := s.Repo.GetVariant(context.Background(), variantID)
	require.NoError(s.T, err)
	return v.Stock
}
