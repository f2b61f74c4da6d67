package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/apparel_shop/internal/models"
	"github.com/Skotchmaster/apparel_shop/internal/service"
	"github.com/Skotchmaster/apparel_shop/internal/transport"
	"github.com/Skotchmaster/apparel_shop/internal/util"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
)

type OrderHTTP struct {
	Orders *service.OrderService
}

func listOrders(c echo.Context, orders *service.OrderService, actor service.Actor) (*transport.OrderList, error) {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	list, err := orders.List(c.Request().Context(), actor, service.ListFilter{
		Status: models.OrderStatus(c.QueryParam("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	return &transport.OrderList{Orders: list, Page: max(page, 1), Size: limit}, nil
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("list_orders_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	// the admin listing lives under /orders/admin
	actor.Role = service.RoleUser

	res, err := listOrders(c, h.Orders, actor)
	if err != nil {
		return fail(l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("get_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "get_order", err.Error(), err)
	}

	o, err := h.Orders.Get(ctx, id, actor)
	if err != nil {
		return fail(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) GetOrderByCode(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_by_code")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("get_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	o, err := h.Orders.GetByCode(ctx, c.Param("orderCode"), actor)
	if err != nil {
		return fail(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	actor, err := actorOf(c)
	if err != nil {
		l.Warn("cancel_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order", err.Error(), err)
	}

	o, err := h.Orders.Transition(ctx, id, actor, models.StatusCancelled)
	if err != nil {
		return fail(l, "cancel_order", err)
	}
	l.Info("cancel_order_success", "order_code", o.OrderCode)
	return c.JSON(http.StatusOK, o)
}
