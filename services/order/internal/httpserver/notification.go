package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ezpickup/pkg/logging"
	"github.com/Skotchmaster/ezpickup/services/order/internal/service"
	"github.com/Skotchmaster/ezpickup/services/order/internal/transport"
	"github.com/Skotchmaster/ezpickup/services/order/internal/util"
)

type NotificationHTTP struct {
	Svc *service.NotificationService
}

func (h *NotificationHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.list")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "list_notifications", err)
	}
	isRead, err := util.ParseBool(c.QueryParam("is_read"))
	if err != nil {
		return badRequest(l, "list_notifications", err.Error(), err)
	}

	page, err := h.Svc.List(ctx, actor, transport.NotificationQuery{
		Type:   c.QueryParam("type"),
		IsRead: isRead,
		Page:   util.ParseIntDefault(c.QueryParam("page"), 1),
		Limit:  util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	})
	if err != nil {
		return fail(l, "list_notifications", err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *NotificationHTTP) UnreadCount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.unread_count")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "unread_count", err)
	}
	n, err := h.Svc.CountUnread(ctx, actor)
	if err != nil {
		return fail(l, "unread_count", err)
	}
	return c.JSON(http.StatusOK, transport.CountResponse{Count: n})
}

func (h *NotificationHTTP) ReadAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.read_all")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "read_all", err)
	}
	n, err := h.Svc.MarkAllRead(ctx, actor)
	if err != nil {
		return fail(l, "read_all", err)
	}

	l.Info("read_all_success", "count", n)
	return c.JSON(http.StatusOK, transport.CountResponse{Count: n})
}

func (h *NotificationHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.get")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "get_notification", err.Error(), err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "get_notification", err)
	}

	n, err := h.Svc.Get(ctx, actor, id)
	if err != nil {
		return fail(l, "get_notification", err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *NotificationHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.update")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "update_notification", err.Error(), err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "update_notification", err)
	}

	var req transport.UpdateNotificationRequest
	if reason, err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "update_notification", reason, err)
	}

	n, err := h.Svc.SetRead(ctx, actor, id, *req.IsRead)
	if err != nil {
		return fail(l, "update_notification", err)
	}

	l.Info("update_notification_success", "notification_id", id, "is_read", n.IsRead)
	return c.JSON(http.StatusOK, n)
}

func (h *NotificationHTTP) RegisterPushToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "push_token.register")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "register_push_token", err)
	}

	var req transport.RegisterPushTokenRequest
	if reason, err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "register_push_token", reason, err)
	}

	t, err := h.Svc.RegisterPushToken(ctx, actor, req)
	if err != nil {
		return fail(l, "register_push_token", err)
	}

	l.Info("register_push_token_success", "device_id", t.DeviceID)
	return c.JSON(http.StatusCreated, t)
}

func (h *NotificationHTTP) UnregisterPushToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "push_token.unregister")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "unregister_push_token", err)
	}
	if err := h.Svc.UnregisterPushToken(ctx, actor, c.Param("deviceId")); err != nil {
		return fail(l, "unregister_push_token", err)
	}

	l.Info("unregister_push_token_success")
	return c.NoContent(http.StatusNoContent)
}
