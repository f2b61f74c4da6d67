package config

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:cfg?mode=memory")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HOME_CITIES", "")
	t.Setenv("SHIPPING_FEE_HOME", "")
	t.Setenv("GATEWAY_TIMEOUT", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("GATEWAY_URL", "")
	t.Setenv("GATEWAY_SECRET", "")

	cfg := Load()

	assert.Equal(t, []string{"Hà Nội"}, cfg.Shipping.HomeCities)
	assert.Equal(t, int64(20000), cfg.Shipping.HomeFee)
	assert.Equal(t, int64(35000), cfg.Shipping.OtherFee)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "order-events", cfg.OutboxTopic)
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HOME_CITIES", "Hà Nội, Hồ Chí Minh")
	t.Setenv("SHIPPING_FEE_OTHER", "50000")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("CHECKOUT_TIMEOUT", "1m")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("GATEWAY_URL", "https://pay.example.com")
	t.Setenv("GATEWAY_SECRET", "gw-secret")

	cfg := Load()

	assert.Equal(t, []string{"Hà Nội", "Hồ Chí Minh"}, cfg.Shipping.HomeCities)
	assert.Equal(t, int64(50000), cfg.Shipping.OtherFee)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, time.Minute, cfg.CheckoutTimeout)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, []byte("gw-secret"), cfg.Gateway.Secret)
}

func TestLoad_GatewayNeedsSecret(t *testing.T) {
	if os.Getenv("LOAD_GATEWAY_NO_SECRET") == "1" {
		Load()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestLoad_GatewayNeedsSecret$")
	cmd.Env = append(os.Environ(),
		"LOAD_GATEWAY_NO_SECRET=1",
		"DATABASE_URL=file:cfg?mode=memory",
		"DB_DRIVER=sqlite",
		"JWT_SECRET=secret",
		"GATEWAY_URL=https://pay.example.com",
		"GATEWAY_SECRET=",
	)
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.False(t, exitErr.Success())
	assert.Contains(t, string(out), "GATEWAY_SECRET")
}
