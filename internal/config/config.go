package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/apparel_shop/pkg/config"
	"github.com/Skotchmaster/apparel_shop/pkg/db"
)

type Shipping struct {
	HomeCities []string
	HomeFee    int64
	OtherFee   int64
}

type Gateway struct {
	URL       string
	Secret    []byte
	ReturnURL string
	Timeout   time.Duration
}

type ServiceConfig struct {
	config.Config

	Shipping Shipping
	Gateway  Gateway

	StripeWebhookSecret string
	OutboxTopic         string
	CheckoutTimeout     time.Duration
	CookieSecure        bool
}

// LoadDotEnv reads .env when present; the process environment wins.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		log.Printf("notice: %s not loaded: %v, using process environment", path, err)
	}
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustOneOf(cfg.DatabaseDriver, "DB_DRIVER", db.DriverPostgres, db.DriverSQLite)

	gw := Gateway{
		URL:       config.EnvDefault("GATEWAY_URL", ""),
		Secret:    []byte(config.EnvDefault("GATEWAY_SECRET", "")),
		ReturnURL: config.EnvDefault("GATEWAY_RETURN_URL", ""),
		Timeout:   config.EnvDurationDefault("GATEWAY_TIMEOUT", 10*time.Second),
	}
	if gw.URL != "" {
		config.MustNonEmptyBytes(gw.Secret, "GATEWAY_SECRET")
	}

	return ServiceConfig{
		Config: cfg,
		Shipping: Shipping{
			HomeCities: config.CSV(config.EnvDefault("HOME_CITIES", "Hà Nội")),
			HomeFee:    config.EnvInt64Default("SHIPPING_FEE_HOME", 20000),
			OtherFee:   config.EnvInt64Default("SHIPPING_FEE_OTHER", 35000),
		},
		Gateway:             gw,
		StripeWebhookSecret: config.EnvDefault("STRIPE_WEBHOOK_SECRET", ""),
		OutboxTopic:         config.EnvDefault("OUTBOX_TOPIC", "order-events"),
		CheckoutTimeout:     config.EnvDurationDefault("CHECKOUT_TIMEOUT", 30*time.Second),
		CookieSecure:        config.EnvDefault("COOKIE_SECURE", "true") == "true",
	}
}
