package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/apparel_shop/internal/gateway"
	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/repo"
	"github.com/Skotchmaster/apparel_shop/internal/testutil"
)

const (
	homeCity   = "Hà Nội"
	homeFee    = 20000
	otherFee   = 35000
	gwSecret   = "gw-secret"
	gatewayURL = "https://pay.example.com"
)

type fakeGateway struct {
	mu      sync.Mutex
	charge  func(code string, amount int64) (*gateway.ChargeResult, error)
	refunds chan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{refunds: make(chan string, 8)}
}

func (g *fakeGateway) PaymentURL(code string, amount int64) (string, error) {
	return gateway.HMACSigner{Secret: []byte(gwSecret)}.PaymentURL(gatewayURL+"/pay", "", code, amount)
}

func (g *fakeGateway) Charge(_ context.Context, code string, amount int64) (*gateway.ChargeResult, error) {
	g.mu.Lock()
	fn := g.charge
	g.mu.Unlock()
	if fn == nil {
		return &gateway.ChargeResult{TransactionNo: "TX-" + code, Approved: true}, nil
	}
	return fn(code, amount)
}

func (g *fakeGateway) Refund(_ context.Context, code string, _ int64) error {
	g.refunds <- code
	return nil
}

type failingSeq struct{}

func (failingSeq) Next(context.Context, string) (int64, error) {
	return 0, errors.New("sequence unavailable")
}

type env struct {
	t        *testing.T
	ctx      context.Context
	repo     *repo.GormRepo
	seed     testutil.Seed
	gw       *fakeGateway
	stock    *StockService
	vouchers *VoucherService
	payments *PaymentService
	orders   *OrderService
	audit    *AuditService
	carts    *CartService
	checkout *CheckoutService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	r := testutil.NewRepo(t)
	gw := newFakeGateway()
	e := &env{
		t:    t,
		ctx:  testutil.Context(),
		repo: r,
		seed: testutil.Seed{T: t, Repo: r},
		gw:   gw,
	}
	e.stock = &StockService{Repo: r}
	e.vouchers = &VoucherService{Repo: r}
	e.payments = &PaymentService{
		Repo:      r,
		Verifiers: map[string]gateway.Verifier{"gateway": gateway.HMACSigner{Secret: []byte(gwSecret)}},
	}
	e.orders = &OrderService{Repo: r, Gateway: gw, RefundTimeout: time.Second}
	e.audit = &AuditService{Repo: r, Orders: e.orders}
	e.carts = &CartService{Repo: r}
	e.checkout = &CheckoutService{
		Repo:     r,
		Stock:    e.stock,
		Vouchers: e.vouchers,
		Payments: e.payments,
		Shipping: NewShippingPolicy([]string{homeCity}, homeFee, otherFee),
		Codes:    &OrderCoder{Seq: &SQLSequence{Repo: r}},
		Gateway:  gw,
		Timeout:  10 * time.Second,
	}
	return e
}

type placed struct {
	user    uuid.UUID
	variant models.ProductVariant
	order   *models.Order
}

// place checks out a cart of qty units of a fresh 100000 variant.
func (e *env) place(kind models.PaymentKind, stock, qty int64) placed {
	e.t.Helper()

	user := uuid.New()
	v := e.seed.Variant(100000, stock)
	cart := e.seed.Cart(user, map[*models.ProductVariant]int64{&v: qty})
	addr := e.seed.Address(user, homeCity)
	pm := e.seed.PaymentMethod(kind)

	res, err := e.checkout.Checkout(e.ctx, CheckoutRequest{
		CartID: cart.ID, UserID: user, AddressID: addr.ID, PaymentMethodID: pm.ID,
	})
	require.NoError(e.t, err)
	return placed{user: user, variant: v, order: res.Order}
}

func (e *env) admin() Actor {
	return Actor{UserID: uuid.New(), Role: RoleAdmin}
}

func (e *env) events(orderID uuid.UUID, eventType string) int {
	e.t.Helper()

	events, err := e.repo.ListEvents(e.ctx, orderID.String())
	require.NoError(e.t, err)
	n := 0
	for _, ev := range events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}
