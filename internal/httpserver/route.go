package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/apparel_shop/internal/repo"
	middleware "github.com/Skotchmaster/apparel_shop/pkg/middleware/auth"
)

type Deps struct {
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	AdminHandler   *AdminHTTP
	PaymentHandler *PaymentHTTP
	Repo           *repo.GormRepo
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := d.Repo.Ping(c.Request().Context()); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAuthMiddleware(d.JWTSecret)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PUT("/items/:variantId", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:variantId", d.CartHandler.RemoveItem)
	cart.POST("/checkout", d.CartHandler.CheckoutCart)

	e.GET("/vouchers/:code/check", d.CartHandler.CheckVoucher, authMW.RequireAuth)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/code/:orderCode", d.OrderHandler.GetOrderByCode)

	admin := orders.Group("/admin", authMW.RequireAdmin)
	admin.GET("", d.AdminHandler.ListOrders)
	admin.PUT("/:id/status", d.AdminHandler.SetStatus)
	admin.PUT("/:id/payment-status", d.AdminHandler.SetPaymentStatus)
	admin.GET("/:id/validate", d.AdminHandler.Validate)
	admin.PUT("/:id/auto-fix", d.AdminHandler.AutoFix)
	admin.GET("/:id/history", d.AdminHandler.History)
	admin.DELETE("/:id", d.AdminHandler.DeleteOrder)

	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	payment := e.Group("/payment")
	payment.GET("/gateway/callback", d.PaymentHandler.GatewayReturn)
	payment.POST("/gateway/ipn", d.PaymentHandler.GatewayIPN)
	payment.POST("/stripe/webhook", d.PaymentHandler.StripeWebhook)
}
