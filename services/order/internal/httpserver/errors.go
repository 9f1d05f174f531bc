package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/ezpickup/pkg/middleware/auth"
	"github.com/Skotchmaster/ezpickup/services/order/internal/authz"
	"github.com/Skotchmaster/ezpickup/services/order/internal/service"
)

var errUnauthorized = errors.New("unauthorized")

// fail logs the failed operation and converts err to the matching HTTP error.
// Client errors keep their message; internal errors are hidden.
func fail(l *slog.Logger, op string, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, errUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUnavailable):
		status, msg = http.StatusServiceUnavailable, "service unavailable"
	}

	if status >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", status, "reason", msg, "error", err)
	} else {
		l.Warn(op+"_error", "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// actorFrom reads the caller identity set by the auth middleware.
func actorFrom(c echo.Context) (authz.Actor, error) {
	sub, _ := c.Get(middleware.CtxUserID).(string)
	id, err := strconv.ParseUint(sub, 10, 0)
	if err != nil || id == 0 {
		return authz.Actor{}, errUnauthorized
	}
	role, err := authz.ParseRole(roleOf(c))
	if err != nil {
		return authz.Actor{}, errUnauthorized
	}
	return authz.Actor{UserID: uint(id), Role: role}, nil
}

// optionalActor returns nil for anonymous callers.
func optionalActor(c echo.Context) (*authz.Actor, error) {
	if c.Get(middleware.CtxUserID) == nil {
		return nil, nil
	}
	a, err := actorFrom(c)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func roleOf(c echo.Context) string {
	r, _ := c.Get(middleware.CtxRole).(string)
	return r
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return uint(id), nil
}
