package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/apparel_shop/internal/service"
	"github.com/Skotchmaster/apparel_shop/internal/transport"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
)

type CartHTTP struct {
	Carts    *service.CartService
	Checkout *service.CheckoutService
	Vouchers *service.VoucherService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("get_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.Carts.GetCart(ctx, actor.UserID)
	if err != nil {
		return fail(l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("add_item_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_item", "invalid body", err)
	}

	cart, err := h.Carts.AddItem(ctx, actor.UserID, req.VariantID, req.Quantity)
	if err != nil {
		return fail(l, "add_item", err)
	}
	l.Info("cart_item_added", "variant_id", req.VariantID, "quantity", req.Quantity)
	return c.JSON(http.StatusCreated, cart)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("update_item_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	variantID, err := uuidParam(c, "variantId")
	if err != nil {
		return badRequest(l, "update_item", err.Error(), err)
	}

	var req transport.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_item", "invalid body", err)
	}

	cart, err := h.Carts.UpdateItem(ctx, actor.UserID, variantID, req.Quantity)
	if err != nil {
		return fail(l, "update_item", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("remove_item_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	variantID, err := uuidParam(c, "variantId")
	if err != nil {
		return badRequest(l, "remove_item", err.Error(), err)
	}

	cart, err := h.Carts.RemoveItem(ctx, actor.UserID, variantID)
	if err != nil {
		return fail(l, "remove_item", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("clear_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.Carts.Clear(ctx, actor.UserID)
	if err != nil {
		return fail(l, "clear_cart", err)
	}
	l.Info("cart_cleared")
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) CheckoutCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("checkout_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "checkout", "invalid body", err)
	}

	var cartID uuid.UUID
	if req.CartID != nil {
		cartID = *req.CartID
	} else {
		cart, err := h.Carts.GetCart(ctx, actor.UserID)
		if err != nil {
			return fail(l, "checkout", err)
		}
		cartID = cart.ID
	}

	res, err := h.Checkout.Checkout(ctx, service.CheckoutRequest{
		CartID:          cartID,
		UserID:          actor.UserID,
		AddressID:       req.AddressID,
		PaymentMethodID: req.PaymentMethodID,
		VoucherCode:     req.VoucherCode,
	})
	if err != nil {
		return fail(l, "checkout", err)
	}
	l.Info("checkout_success", "order_code", res.Order.OrderCode)
	return c.JSON(http.StatusCreated, res)
}

func (h *CartHTTP) CheckVoucher(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "voucher.check")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("check_voucher_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	total, err := strconv.ParseInt(c.QueryParam("total"), 10, 64)
	if err != nil {
		return badRequest(l, "check_voucher", "total must be an integer", err)
	}

	check, err := h.Vouchers.CheckUsage(ctx, c.Param("code"), actor.UserID, total, time.Now().UTC())
	if err != nil {
		return fail(l, "check_voucher", err)
	}
	return c.JSON(http.StatusOK, check)
}
