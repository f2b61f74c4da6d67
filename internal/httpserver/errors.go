package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/apparel_shop/internal/service"
	"github.com/Skotchmaster/apparel_shop/internal/transport"
	middleware "github.com/Skotchmaster/apparel_shop/pkg/middleware/auth"
)

var errUnauthorized = errors.New("unauthorized")

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrVoucherIneligible),
		errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail logs err under op and turns it into the matching HTTP error.
// Internal failures never leak their message.
func fail(l *slog.Logger, op string, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		l.Error(op+"_error", "status", status, "error", err)
		return echo.NewHTTPError(status, "internal error")
	}
	l.Warn(op+"_error", "status", status, "error", err)

	var se *service.StockError
	if errors.As(err, &se) {
		return echo.NewHTTPError(status, transport.StockErrorResponse{
			Message:   se.Error(),
			VariantID: se.VariantID,
			Requested: se.Requested,
			Available: se.Available,
		})
	}
	return echo.NewHTTPError(status, err.Error())
}

func badRequest(l *slog.Logger, op, msg string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", msg, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

func actorOf(c echo.Context) (service.Actor, error) {
	s, ok := c.Get(middleware.ContextUserID).(string)
	if !ok || s == "" {
		return service.Actor{}, errUnauthorized
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return service.Actor{}, errUnauthorized
	}
	role, _ := c.Get(middleware.ContextRole).(string)
	if role == "" {
		role = service.RoleUser
	}
	return service.Actor{UserID: id, Role: role}, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.New("invalid " + name)
	}
	return id, nil
}
