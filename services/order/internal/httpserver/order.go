package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ezpickup/pkg/logging"
	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
	"github.com/Skotchmaster/ezpickup/services/order/internal/service"
	"github.com/Skotchmaster/ezpickup/services/order/internal/transport"
	"github.com/Skotchmaster/ezpickup/services/order/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	actor, err := optionalActor(c)
	if err != nil {
		return fail(l, "create_order", err)
	}

	var req transport.CreateOrderRequest
	if reason, err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "create_order", reason, err)
	}

	order, err := h.Svc.CreateOrder(ctx, actor, req)
	if err != nil {
		return fail(l, "create_order", err)
	}

	l.Info("create_order_success", "order_id", order.ID, "order_number", order.OrderNumber)
	return c.JSON(http.StatusCreated, transport.NewCreateOrderResponse(order))
}

func (h *OrderHTTP) TrackOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.track_order")

	order, err := h.Svc.TrackGuestOrder(ctx, c.Param("orderNumber"), c.QueryParam("phone"))
	if err != nil {
		return fail(l, "track_order", err)
	}

	l.Info("track_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "get_order", err.Error(), err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "get_order", err)
	}

	order, err := h.Svc.GetOrder(ctx, actor, id)
	if err != nil {
		return fail(l, "get_order", err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) GetOrderByNumber(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order_by_number")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "get_order_by_number", err)
	}

	order, err := h.Svc.GetOrderByNumber(ctx, actor, c.Param("orderNumber"))
	if err != nil {
		return fail(l, "get_order_by_number", err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "list_orders", err)
	}
	q, err := parseOrderQuery(c)
	if err != nil {
		return badRequest(l, "list_orders", err.Error(), err)
	}

	page, err := h.Svc.ListOrders(ctx, actor, q)
	if err != nil {
		return fail(l, "list_orders", err)
	}

	l.Info("list_orders_success", "total", page.Meta.Total)
	return c.JSON(http.StatusOK, page)
}

func parseOrderQuery(c echo.Context) (transport.OrderQuery, error) {
	q := transport.OrderQuery{
		OrderNumber:   c.QueryParam("order_number"),
		Status:        models.OrderStatus(c.QueryParam("status")),
		PaymentStatus: models.PaymentStatus(c.QueryParam("payment_status")),
		SortBy:        c.QueryParam("sort_by"),
		SortOrder:     c.QueryParam("sort_order"),
		Page:          util.ParseIntDefault(c.QueryParam("page"), 1),
		Limit:         util.ParseIntDefault(c.QueryParam("limit"), 0),
	}

	var err error
	if q.StoreID, err = util.ParseUint(c.QueryParam("store_id")); err != nil {
		return q, err
	}
	if q.CustomerID, err = util.ParseUint(c.QueryParam("customer_id")); err != nil {
		return q, err
	}
	if q.PickupFrom, err = util.ParseTimeBound(c.QueryParam("pickup_from"), false); err != nil {
		return q, err
	}
	if q.PickupTo, err = util.ParseTimeBound(c.QueryParam("pickup_to"), true); err != nil {
		return q, err
	}
	if q.CreatedFrom, err = util.ParseTimeBound(c.QueryParam("start_date"), false); err != nil {
		return q, err
	}
	if q.CreatedTo, err = util.ParseTimeBound(c.QueryParam("end_date"), true); err != nil {
		return q, err
	}
	active, err := util.ParseBool(c.QueryParam("active_only"))
	if err != nil {
		return q, err
	}
	q.ActiveOnly = active != nil && *active
	return q, nil
}

func (h *OrderHTTP) SearchOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.search_orders")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "search_orders", err)
	}
	storeID, err := util.ParseUint(c.QueryParam("store_id"))
	if err != nil || storeID == nil {
		return badRequest(l, "search_orders", "store_id is required", err)
	}

	page, err := h.Svc.SearchOrders(ctx, actor, transport.OrderSearchQuery{
		StoreID: *storeID,
		Query:   c.QueryParam("q"),
		Page:    util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:    util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	})
	if err != nil {
		return fail(l, "search_orders", err)
	}

	l.Info("search_orders_success", "total", page.Meta.Total)
	return c.JSON(http.StatusOK, page)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "update_status", err.Error(), err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "update_status", err)
	}

	var req transport.UpdateOrderStatusRequest
	if reason, err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "update_status", reason, err)
	}

	order, err := h.Svc.UpdateStatus(ctx, actor, id, req)
	if err != nil {
		return fail(l, "update_status", err)
	}

	l.Info("update_status_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_order")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order", err.Error(), err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "cancel_order", err)
	}

	var req transport.CancelOrderRequest
	if reason, err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "cancel_order", reason, err)
	}

	order, err := h.Svc.CancelOrder(ctx, actor, id, req.Reason)
	if err != nil {
		return fail(l, "cancel_order", err)
	}

	l.Info("cancel_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) NotifyCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.notify_customer")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "notify_customer", err.Error(), err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return fail(l, "notify_customer", err)
	}

	var req transport.CustomNotificationRequest
	if reason, err := bindAndValidate(c, &req); err != nil {
		return badRequest(l, "notify_customer", reason, err)
	}

	n, err := h.Svc.NotifyCustomer(ctx, actor, id, req)
	if err != nil {
		return fail(l, "notify_customer", err)
	}

	l.Info("notify_customer_success", "order_id", id, "count", n)
	return c.JSON(http.StatusCreated, transport.CountResponse{Count: int64(n)})
}
