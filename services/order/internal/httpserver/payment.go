package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ezpickup/pkg/logging"
	"github.com/Skotchmaster/ezpickup/services/order/internal/service"
	"github.com/Skotchmaster/ezpickup/services/order/internal/transport"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) CreatePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_payment")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "create_payment", err.Error(), err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "create_payment", err)
	}

	var req transport.CreatePaymentRequest
	if reason, err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "create_payment", reason, err)
	}

	p, err := h.Svc.CreatePayment(ctx, actor, id, req)
	if err != nil {
		return fail(l, "create_payment", err)
	}

	l.Info("create_payment_success", "order_id", id, "payment_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *PaymentHTTP) UpdatePaymentStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.update_status")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "update_payment", err.Error(), err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "update_payment", err)
	}

	var req transport.UpdatePaymentStatusRequest
	if reason, err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "update_payment", reason, err)
	}

	p, err := h.Svc.UpdatePaymentStatus(ctx, actor, id, req)
	if err != nil {
		return fail(l, "update_payment", err)
	}

	l.Info("update_payment_success", "order_id", id, "status", p.PaymentStatus)
	return c.JSON(http.StatusOK, p)
}

func (h *PaymentHTTP) GetPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get_payment")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "get_payment", err.Error(), err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "get_payment", err)
	}

	p, err := h.Svc.GetPayment(ctx, actor, id)
	if err != nil {
		return fail(l, "get_payment", err)
	}
	return c.JSON(http.StatusOK, p)
}
