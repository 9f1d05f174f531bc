package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/ezpickup/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler        *OrderHTTP
	PaymentHandler      *PaymentHTTP
	NotificationHandler *NotificationHTTP

	JWTSecret  []byte
	AuthClient middleware.Refresher

	// Ready reports whether dependencies (the database) are reachable.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)
	staff := authMW.RequireRole("owner", "admin")

	orders := e.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder, authMW.OptionalAuth)
	orders.GET("/track/:orderNumber", d.OrderHandler.TrackOrder)
	orders.GET("", d.OrderHandler.ListOrders, authMW.RequireAuth)
	orders.GET("/search", d.OrderHandler.SearchOrders, staff)
	orders.GET("/number/:orderNumber", d.OrderHandler.GetOrderByNumber, authMW.RequireAuth)
	orders.GET("/:id", d.OrderHandler.GetOrder, authMW.RequireAuth)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateStatus, staff)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder, authMW.RequireRole("customer"))
	orders.POST("/:id/notifications", d.OrderHandler.NotifyCustomer, staff)

	orders.GET("/:id/payment", d.PaymentHandler.GetPayment, authMW.RequireAuth)
	orders.POST("/:id/payment", d.PaymentHandler.CreatePayment, authMW.RequireAuth)
	orders.PATCH("/:id/payment", d.PaymentHandler.UpdatePaymentStatus, staff)

	notifications := e.Group("/notifications", authMW.RequireAuth)
	notifications.GET("", d.NotificationHandler.List)
	notifications.GET("/unread-count", d.NotificationHandler.UnreadCount)
	notifications.POST("/read-all", d.NotificationHandler.ReadAll)
	notifications.GET("/:id", d.NotificationHandler.Get)
	notifications.PATCH("/:id", d.NotificationHandler.Update)

	pushTokens := e.Group("/push-tokens", authMW.RequireAuth)
	pushTokens.POST("", d.NotificationHandler.RegisterPushToken)
	pushTokens.DELETE("/:deviceId", d.NotificationHandler.UnregisterPushToken)
}
