package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/apparel_shop/internal/service"
	"github.com/Skotchmaster/apparel_shop/internal/transport"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
)

type AdminHTTP struct {
	Orders *service.OrderService
	Audit  *service.AuditService
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("list_orders_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	res, err := listOrders(c, h.Orders, actor)
	if err != nil {
		return fail(l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_status")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("set_status_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "set_status", err.Error(), err)
	}
	var req transport.StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_status", "invalid body", err)
	}

	o, err := h.Orders.Transition(ctx, id, actor, req.Status)
	if err != nil {
		return fail(l, "set_status", err)
	}
	l.Info("set_status_success", "order_code", o.OrderCode, "status", o.Status)
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHTTP) SetPaymentStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_payment_status")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("set_payment_status_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "set_payment_status", err.Error(), err)
	}
	var req transport.PaymentStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_payment_status", "invalid body", err)
	}

	o, err := h.Orders.SetPaymentStatus(ctx, id, actor, req.PaymentStatus)
	if err != nil {
		return fail(l, "set_payment_status", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.validate")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "validate", err.Error(), err)
	}

	report, err := h.Audit.Validate(ctx, id)
	if err != nil {
		return fail(l, "validate", err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *AdminHTTP) AutoFix(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.auto_fix")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("auto_fix_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "auto_fix", err.Error(), err)
	}

	o, err := h.Audit.AutoFix(ctx, id, actor)
	if err != nil {
		return fail(l, "auto_fix", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.history")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "history", err.Error(), err)
	}

	rows, err := h.Orders.History(ctx, id)
	if err != nil {
		return fail(l, "history", err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *AdminHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_order")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("delete_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_order", err.Error(), err)
	}

	if err := h.Orders.Delete(ctx, id, actor); err != nil {
		return fail(l, "delete_order", err)
	}
	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}
