package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/apparel_shop/internal/gateway"
	"github.com/Skotchmaster/apparel_shop/internal/service"
	"github.com/Skotchmaster/apparel_shop/internal/transport"
	"github.com/Skotchmaster/apparel_shop/pkg/logging"
)

const (
	GatewayHMAC   = "gateway"
	GatewayStripe = "stripe"

	maxCallbackBody = 64 << 10
)

type PaymentHTTP struct {
	Payments *service.PaymentService
}

func rejectStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrUnknownGateway):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAmountMismatch):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func readBody(c echo.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackBody))
}

// GatewayReturn handles the customer's browser coming back from the
// gateway. It is applied exactly like the IPN.
func (h *PaymentHTTP) GatewayReturn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.gateway_return")

	rec, err := h.Payments.Ingest(ctx, GatewayHMAC, gateway.RawCallback{
		Query:  c.QueryParams(),
		Header: c.Request().Header,
		Source: service.SourceReturn,
	})
	if err != nil {
		return fail(l, "gateway_return", err)
	}
	if !rec.Accepted() {
		return c.JSON(rejectStatus(rec.Rejected), rec)
	}
	return c.JSON(http.StatusOK, rec)
}

// GatewayIPN always answers 200; the outcome is carried in RspCode.
func (h *PaymentHTTP) GatewayIPN(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.gateway_ipn")

	body, err := readBody(c)
	if err != nil {
		l.Warn("gateway_ipn_error", "status", 200, "error", err)
		return c.JSON(http.StatusOK, transport.IPNResponse{RspCode: transport.RspUnknown, Message: "unreadable body"})
	}

	rec, err := h.Payments.Ingest(ctx, GatewayHMAC, gateway.RawCallback{
		Query:  c.QueryParams(),
		Body:   body,
		Header: c.Request().Header,
		Source: service.SourceIPN,
	})
	if err != nil {
		l.Error("gateway_ipn_error", "status", 200, "error", err)
		return c.JSON(http.StatusOK, transport.IPNResponse{RspCode: transport.RspUnknown, Message: "unknown error"})
	}
	return c.JSON(http.StatusOK, ipnResponse(rec))
}

func ipnResponse(rec *service.Receipt) transport.IPNResponse {
	switch {
	case rec.Accepted() && rec.Duplicate:
		return transport.IPNResponse{RspCode: transport.RspAlreadyApplied, Message: "order already confirmed"}
	case rec.Accepted():
		return transport.IPNResponse{RspCode: transport.RspOK, Message: "confirm success"}
	case errors.Is(rec.Rejected, service.ErrInvalidSignature):
		return transport.IPNResponse{RspCode: transport.RspInvalidChecksum, Message: "invalid signature"}
	case errors.Is(rec.Rejected, service.ErrOrderNotFound):
		return transport.IPNResponse{RspCode: transport.RspOrderNotFound, Message: "order not found"}
	case errors.Is(rec.Rejected, service.ErrAmountMismatch):
		return transport.IPNResponse{RspCode: transport.RspInvalidAmount, Message: "invalid amount"}
	}
	return transport.IPNResponse{RspCode: transport.RspUnknown, Message: rec.Reason}
}

func (h *PaymentHTTP) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.stripe_webhook")

	body, err := readBody(c)
	if err != nil {
		return badRequest(l, "stripe_webhook", "unreadable body", err)
	}

	rec, err := h.Payments.Ingest(ctx, GatewayStripe, gateway.RawCallback{
		Body:   body,
		Header: c.Request().Header,
		Source: service.SourceWebhook,
	})
	if err != nil {
		return fail(l, "stripe_webhook", err)
	}
	switch {
	case rec.Accepted():
		return c.JSON(http.StatusOK, rec)
	case errors.Is(rec.Rejected, gateway.ErrMalformed):
		// signed but not for us; acknowledge so it is not redelivered
		return c.JSON(http.StatusOK, rec)
	}
	return c.JSON(rejectStatus(rec.Rejected), rec)
}
