package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/repo"
	"github.com/Skotchmaster/apparel_shop/internal/testutil"
	"github.com/Skotchmaster/apparel_shop/pkg/outbox"
)

func TestCompareAndDecrement(t *testing.T) {
	r := testutil.NewRepo(t)
	seed := testutil.Seed{T: t, Repo: r}
	ctx := context.Background()
	v := seed.Variant(100000, 3)

	ok, err := repo.CompareAndDecrement(ctx, r.DB, &models.ProductVariant{}, v.ID, "stock", 2, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CompareAndDecrement(ctx, r.DB, &models.ProductVariant{}, v.ID, "stock", 2, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), seed.Stock(v.ID))

	ok, err = repo.CompareAndDecrement(ctx, r.DB, &models.ProductVariant{}, uuid.New(), "stock", 1, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReserveStock_InactiveVariant(t *testing.T) {
	r := testutil.NewRepo(t)
	seed := testutil.Seed{T: t, Repo: r}
	ctx := context.Background()
	v := seed.Variant(100000, 3)
	require.NoError(t, r.DB.Model(&models.ProductVariant{}).Where("id = ?", v.ID).Update("is_active", false).Error)

	ok, err := r.ReserveStock(ctx, v.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.RestoreStock(ctx, v.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(5), seed.Stock(v.ID))
}

func TestOpenCart_OnePerUser(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	user := uuid.New()

	first, err := r.OpenCart(ctx, user)
	require.NoError(t, err)
	second, err := r.OpenCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	orderID := uuid.New()
	flipped, err := r.FlipCart(ctx, first.ID, orderID)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = r.FlipCart(ctx, first.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, flipped, "a checked out cart never flips again")

	third, err := r.OpenCart(ctx, user)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	old, err := r.GetCart(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, old.OrderID)
	assert.Equal(t, orderID, *old.OrderID)
	assert.Nil(t, old.OpenKey)
}

func TestAddCartItem_Increments(t *testing.T) {
	r := testutil.NewRepo(t)
	seed := testutil.Seed{T: t, Repo: r}
	ctx := context.Background()
	v := seed.Variant(50000, 10)
	cart, err := r.OpenCart(ctx, uuid.New())
	require.NoError(t, err)

	item := models.CartItem{CartID: cart.ID, VariantID: v.ID, Quantity: 1, UnitPrice: 50000}
	require.NoError(t, r.AddCartItem(ctx, &item))
	item = models.CartItem{CartID: cart.ID, VariantID: v.ID, Quantity: 2, UnitPrice: 45000}
	require.NoError(t, r.AddCartItem(ctx, &item))

	assert.Equal(t, int64(3), item.Quantity)
	assert.Equal(t, int64(45000), item.UnitPrice)
	assert.Equal(t, int64(135000), item.LineTotal)

	require.NoError(t, r.RemoveCartItem(ctx, cart.ID, v.ID))
	assert.True(t, repo.IsNotFound(r.RemoveCartItem(ctx, cart.ID, v.ID)))
}

func TestRedeem(t *testing.T) {
	r := testutil.NewRepo(t)
	seed := testutil.Seed{T: t, Repo: r}
	ctx := context.Background()
	v := seed.Voucher(testutil.VoucherOpts{Code: "ONCE", Percent: "10", Limit: 2, OneTime: true})
	user := uuid.New()

	require.NoError(t, r.Redeem(ctx, &v, user, uuid.New()))
	assert.ErrorIs(t, r.Redeem(ctx, &v, user, uuid.New()), repo.ErrAlreadyRedeemed)

	stored, err := r.GetVoucherByCode(ctx, "once")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UsedCount, "failed redemption rolls back the increment")

	other := uuid.New()
	cart := uuid.New()
	require.NoError(t, r.Redeem(ctx, &v, other, cart))
	assert.ErrorIs(t, r.Redeem(ctx, &v, uuid.New(), uuid.New()), repo.ErrUsageExhausted)

	require.NoError(t, r.ReleaseRedemption(ctx, v.ID, cart))
	require.NoError(t, r.ReleaseRedemption(ctx, v.ID, cart))
	stored, err = r.GetVoucherByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UsedCount)

	used, err := r.HasOneTimeRedemption(ctx, v.ID, other)
	require.NoError(t, err)
	assert.False(t, used)
}

func TestUpdateOrderVersioned(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	order := models.Order{
		OrderCode: "ORD-20260101-000001", CartID: uuid.New(), UserID: uuid.New(),
		AddressID: uuid.New(), PaymentMethodID: uuid.New(), PaymentKind: models.PaymentKindCOD,
		Status: models.StatusPending, PaymentStatus: models.PaymentUnpaid, Version: 1,
		OrderPlacedAt: time.Now(),
	}
	require.NoError(t, r.CreateOrder(ctx, &order))

	ok, err := r.UpdateOrderVersioned(ctx, order.ID, 1, map[string]any{"status": models.StatusProcessing})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.UpdateOrderVersioned(ctx, order.ID, 1, map[string]any{"status": models.StatusCancelled})
	require.NoError(t, err)
	assert.False(t, ok, "stale version loses")

	got, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got.Status)
	assert.Equal(t, int64(2), got.Version)

	paid, err := r.MarkOrderPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, paid)
	paid, err = r.MarkOrderPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, paid)
}

func TestNextOrderSeq(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := r.NextOrderSeq(ctx, "20260101")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	got, err := r.NextOrderSeq(ctx, "20260102")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestRecordCallback_Idempotent(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()

	cb := models.PaymentCallback{IdempotencyKey: models.CallbackKey("ORD-1", models.OutcomeSuccess), OrderCode: "ORD-1", Outcome: models.OutcomeSuccess, Source: "ipn"}
	inserted, err := r.RecordCallback(ctx, &cb)
	require.NoError(t, err)
	assert.True(t, inserted)

	dup := models.PaymentCallback{IdempotencyKey: cb.IdempotencyKey, OrderCode: "ORD-1", Outcome: models.OutcomeSuccess, Source: "return"}
	inserted, err = r.RecordCallback(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestRecordCallback_DuplicateKeepsTxUsable(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()

	key := models.CallbackKey("ORD-2", models.OutcomeSuccess)
	_, err := r.RecordCallback(ctx, &models.PaymentCallback{IdempotencyKey: key, OrderCode: "ORD-2", Outcome: models.OutcomeSuccess, Source: "ipn"})
	require.NoError(t, err)

	err = r.InTx(ctx, func(tx *repo.GormRepo) error {
		inserted, err := tx.RecordCallback(ctx, &models.PaymentCallback{IdempotencyKey: key, OrderCode: "ORD-2", Outcome: models.OutcomeSuccess, Source: "return"})
		if err != nil {
			return err
		}
		assert.False(t, inserted)
		return tx.AppendEvent(ctx, "ORD-2", "order.payment_status_changed", map[string]string{"k": "v"})
	})
	require.NoError(t, err)

	n, err := r.CountCallbacks(ctx, "ORD-2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	events, err := r.ListEvents(ctx, "ORD-2")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestOutboxStore(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	store := &repo.OutboxStore{DB: r.DB}

	require.NoError(t, r.AppendEvent(ctx, "agg-1", "order.placed", map[string]string{"k": "v"}))
	require.NoError(t, r.AppendEvent(ctx, "agg-1", "order.status_changed", map[string]string{"k": "w"}))

	batch, err := store.LockBatch(ctx, "relay-1", 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	again, err := store.LockBatch(ctx, "relay-2", 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again, "leased events are not handed out twice")

	require.NoError(t, store.MarkSent(ctx, []int64{batch[0].ID}))
	require.NoError(t, store.MarkFailed(ctx, batch[1].ID, "boom"))

	events, err := r.ListEvents(ctx, "agg-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, outbox.StatusSent, events[0].Status)
	assert.Equal(t, outbox.StatusFailed, events[1].Status)
	assert.Equal(t, 1, events[1].RetryCount)

	retry, err := store.LockBatch(ctx, "relay-1", 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, retry, 1)
	assert.Equal(t, batch[1].ID, retry[0].ID)
}
