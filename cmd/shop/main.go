package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/apparel_shop/internal/config"
	"github.com/Skotchmaster/apparel_shop/internal/gateway"
	"github.com/Skotchmaster/apparel_shop/internal/httpserver"
	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/repo"
	"github.com/Skotchmaster/apparel_shop/internal/service"
	"github.com/Skotchmaster/apparel_shop/pkg/cache"
	"github.com/Skotchmaster/apparel_shop/pkg/db"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
	"github.com/Skotchmaster/apparel_shop/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/apparel_shop/pkg/middleware/logging"
	"github.com/Skotchmaster/apparel_shop/pkg/outbox"
	"github.com/Skotchmaster/apparel_shop/pkg/shutdown"
)

const orderCodeTTL = 48 * time.Hour

var defaultPaymentMethods = []models.PaymentMethod{
	{Code: "cod", Name: "Cash on delivery", Kind: models.PaymentKindCOD, IsActive: true},
	{Code: "gateway", Name: "Card via payment gateway", Kind: models.PaymentKindGateway, IsActive: true},
	{Code: "instant", Name: "Saved card", Kind: models.PaymentKindInstant, IsActive: true},
}

func main() {
	config.LoadDotEnv(".env")
	cfg := config.Load()

	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(log)

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("shop stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("shop stopped")
}

func run(ctx context.Context, cfg config.ServiceConfig, log *slog.Logger) error {
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	gdb, err := db.Open(initCtx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Warn("db close", "error", err)
		}
	}()

	r := &repo.GormRepo{DB: gdb}
	if err := r.Migrate(initCtx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, pm := range defaultPaymentMethods {
		if err := r.EnsurePaymentMethod(initCtx, &pm); err != nil {
			return fmt.Errorf("seed payment method %s: %w", pm.Code, err)
		}
	}

	var seq service.CodeSequence = &service.SQLSequence{Repo: r}
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedis(initCtx, cfg.RedisAddr, os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			return fmt.Errorf("redis init: %w", err)
		}
		defer func(c *redis.Client) { _ = c.Close() }(rdb)
		seq = &service.RedisSequence{Client: rdb, TTL: orderCodeTTL}
		log.Info("order codes from redis", "addr", cfg.RedisAddr)
	}

	verifiers := map[string]gateway.Verifier{}
	var gw service.Gateway
	if cfg.Gateway.URL != "" {
		client := gateway.NewClient(cfg.Gateway.URL, cfg.Gateway.ReturnURL, cfg.Gateway.Secret, cfg.Gateway.Timeout)
		gw = client
		verifiers[httpserver.GatewayHMAC] = client.Signer()
	}
	if cfg.StripeWebhookSecret != "" {
		verifiers[httpserver.GatewayStripe] = gateway.StripeVerifier{Secret: cfg.StripeWebhookSecret}
	}

	stock := &service.StockService{Repo: r}
	vouchers := &service.VoucherService{Repo: r}
	payments := &service.PaymentService{Repo: r, Verifiers: verifiers}
	orders := &service.OrderService{Repo: r, Gateway: gw, RefundTimeout: cfg.Gateway.Timeout}
	checkout := &service.CheckoutService{
		Repo:     r,
		Stock:    stock,
		Vouchers: vouchers,
		Payments: payments,
		Shipping: service.NewShippingPolicy(cfg.Shipping.HomeCities, cfg.Shipping.HomeFee, cfg.Shipping.OtherFee),
		Codes:    &service.OrderCoder{Seq: seq},
		Gateway:  gw,
		Timeout:  cfg.CheckoutTimeout,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(log))
	e.Use(csrf.Middleware(csrf.Config{
		Secure:       cfg.CookieSecure,
		SkipPrefixes: []string{"/payment/", "/health/"},
	}))

	httpserver.Register(e, &httpserver.Deps{
		CartHandler:    &httpserver.CartHTTP{Carts: &service.CartService{Repo: r}, Checkout: checkout, Vouchers: vouchers},
		OrderHandler:   &httpserver.OrderHTTP{Orders: orders},
		AdminHandler:   &httpserver.AdminHTTP{Orders: orders, Audit: &service.AuditService{Repo: r, Orders: orders}},
		PaymentHandler: &httpserver.PaymentHTTP{Payments: payments},
		Repo:           r,
		JWTSecret:      cfg.JWTAccessSecret,
	})

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		writer := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.OutboxTopic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
		defer func() { _ = writer.Close() }()

		host, _ := os.Hostname()
		relayID := fmt.Sprintf("%s-%d", host, os.Getpid())
		relay := outbox.NewRelay(log.With("component", "outbox_relay"), &repo.OutboxStore{DB: gdb},
			outbox.NewDispatcher(log, writer), relayID)
		g.Go(func() error { return relay.Run(gctx) })
		log.Info("outbox relay started", "brokers", cfg.KafkaBrokers, "topic", cfg.OutboxTopic)
	} else {
		log.Warn("KAFKA_BROKERS empty, order events stay in the outbox")
	}

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		log.Info("http server starting", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("echo start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
