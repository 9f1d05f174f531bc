package httpserver

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
	"github.com/Skotchmaster/ezpickup/services/order/internal/transport"
)

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", "", "").Code)
}

func TestCreateGuestOrderAndReject(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ownerTok := token(t, 20, "owner")

	rec := s.do(t, http.MethodPost, "/orders", "", guestOrderBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[transport.CreateOrderResponse](t, rec)
	assert.True(t, decimal.NewFromInt(8000).Equal(created.TotalAmount))
	assert.True(t, decimal.NewFromInt(8000).Equal(created.FinalAmount))
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, models.PaymentPending, created.PaymentStatus)

	path := fmt.Sprintf("/orders/%d/status", created.OrderID)
	rec = s.do(t, http.MethodPatch, path, ownerTok, `{"status":"rejected"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPatch, path, token(t, 10, "customer"), `{"status":"preparing"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, path, ownerTok, `{"status":"ready"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, path, ownerTok, `{"status":"rejected","rejection_reason":"closed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.Equal(t, models.StatusRejected, order.Status)

	var history int64
	require.NoError(t, s.db.Model(&models.OrderStatusHistory{}).Where("order_id = ?", created.OrderID).Count(&history).Error)
	assert.EqualValues(t, 1, history)
}

func TestCreateOrder_BadRequests(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"store_domain":`, http.StatusBadRequest},
		{"no items", `{"store_domain":"cafe.example","items":[],"payment_method":"cash","guest_info":{"name":"Hong","phone":"010"}}`, http.StatusBadRequest},
		{"missing guest info", `{"store_domain":"cafe.example","items":[{"menu_item_id":7,"quantity":1}],"payment_method":"cash"}`, http.StatusBadRequest},
		{"zero quantity", `{"store_domain":"cafe.example","items":[{"menu_item_id":7,"quantity":0}],"payment_method":"cash","guest_info":{"name":"Hong","phone":"010"}}`, http.StatusBadRequest},
		{"huge quantity", `{"store_domain":"cafe.example","items":[{"menu_item_id":7,"quantity":2147483647}],"payment_method":"cash","guest_info":{"name":"Hong","phone":"010"}}`, http.StatusBadRequest},
		{"huge option quantity", `{"store_domain":"cafe.example","items":[{"menu_item_id":7,"quantity":1,"options":[{"option_item_id":3,"quantity":100000}]}],"payment_method":"cash","guest_info":{"name":"Hong","phone":"010"}}`, http.StatusBadRequest},
		{"unknown store", `{"store_domain":"nowhere.example","items":[{"menu_item_id":7,"quantity":1}],"payment_method":"cash","guest_info":{"name":"Hong","phone":"010"}}`, http.StatusNotFound},
		{"unknown item", `{"store_domain":"cafe.example","items":[{"menu_item_id":70,"quantity":1}],"payment_method":"cash","guest_info":{"name":"Hong","phone":"010"}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/orders", "", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestMemberOrderEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	custTok := token(t, 10, "customer")

	rec := s.do(t, http.MethodPost, "/orders", custTok, memberOrderBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[transport.CreateOrderResponse](t, rec)
	orderPath := fmt.Sprintf("/orders/%d", created.OrderID)

	rec = s.do(t, http.MethodGet, orderPath, custTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode[models.Order](t, rec)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, uint(10), *order.CustomerID)
	require.Len(t, order.Items, 1)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, orderPath, token(t, 11, "customer"), "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, orderPath, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, orderPath, "garbage", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/orders/abc", custTok, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/orders/999", custTok, "").Code)

	rec = s.do(t, http.MethodGet, "/orders/number/"+created.OrderNumber, token(t, 20, "owner"), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders?limit=5&active_only=true", custTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[transport.Page[models.Order]](t, rec)
	assert.EqualValues(t, 1, page.Meta.Total)
	assert.Equal(t, 5, page.Meta.Limit)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/orders?start_date=yesterday", custTok, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/orders", token(t, 20, "owner"), "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/orders?store_id=1&start_date=2020-01-01", token(t, 20, "owner"), "").Code)

	rec = s.do(t, http.MethodPost, orderPath+"/cancel", token(t, 20, "owner"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, orderPath+"/cancel", custTok, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	canceled := decode[models.Order](t, rec)
	assert.Equal(t, models.StatusCanceled, canceled.Status)

	rec = s.do(t, http.MethodPost, orderPath+"/cancel", custTok, `{"reason":"again"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrackOrder(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/orders", "", guestOrderBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[transport.CreateOrderResponse](t, rec)

	rec = s.do(t, http.MethodGet, "/orders/track/"+created.OrderNumber+"?phone=01011112222", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.OrderID, decode[models.Order](t, rec).ID)

	rec = s.do(t, http.MethodGet, "/orders/track/"+created.OrderNumber+"?phone=01000000000", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	custTok := token(t, 10, "customer")

	rec := s.do(t, http.MethodPost, "/orders", custTok, memberOrderBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[transport.CreateOrderResponse](t, rec)
	path := fmt.Sprintf("/orders/%d/payment", created.OrderID)

	rec = s.do(t, http.MethodPost, path, custTok, `{"amount":3000,"payment_method":"cash"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, path, custTok, `{"amount":"4000","payment_method":"cash","transaction_id":"tx-9"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[models.OrderPayment](t, rec)
	assert.Equal(t, models.PaymentCompleted, p.PaymentStatus)

	rec = s.do(t, http.MethodPatch, path, custTok, `{"payment_status":"refunded"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, path, token(t, 20, "owner"), `{"payment_status":"refunded"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p = decode[models.OrderPayment](t, rec)
	assert.Equal(t, models.PaymentRefunded, p.PaymentStatus)
	assert.NotNil(t, p.RefundedAt)

	rec = s.do(t, http.MethodGet, path, custTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ownerTok := token(t, 20, "owner")

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/orders", "", guestOrderBody).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/orders", "", guestOrderBody).Code)

	rec := s.do(t, http.MethodGet, "/notifications/unread-count", ownerTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[transport.CountResponse](t, rec).Count)

	rec = s.do(t, http.MethodGet, "/notifications?is_read=false", ownerTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[transport.Page[models.OrderNotification]](t, rec)
	require.Len(t, page.Data, 2)
	first := page.Data[0]

	path := fmt.Sprintf("/notifications/%d", first.ID)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, path, token(t, 10, "customer"), "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, path, ownerTok, `{}`).Code)

	rec = s.do(t, http.MethodPatch, path, ownerTok, `{"is_read":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[models.OrderNotification](t, rec).IsRead)

	rec = s.do(t, http.MethodPost, "/notifications/read-all", ownerTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[transport.CountResponse](t, rec).Count)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/notifications", "", "").Code)
}

func TestPushTokenEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	custTok := token(t, 10, "customer")

	rec := s.do(t, http.MethodPost, "/push-tokens", custTok, `{"fcm_token":"tok-1","device_type":"android","device_id":"pixel"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/push-tokens", custTok, `{"fcm_token":"tok-1","device_type":"fridge","device_id":"pixel"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/push-tokens/pixel", custTok, "").Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/push-tokens/pixel", custTok, "").Code)

	var active int64
	require.NoError(t, s.db.Model(&models.PushToken{}).Where("is_active = ?", true).Count(&active).Error)
	assert.Zero(t, active)
}

func TestSearchWithoutIndex(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/orders/search?store_id=1&q=Hong", token(t, 20, "owner"), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders/search?store_id=1&q=Hong", token(t, 10, "customer"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNotifyCustomerEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/orders", token(t, 10, "customer"), memberOrderBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[transport.CreateOrderResponse](t, rec)
	path := fmt.Sprintf("/orders/%d/notifications", created.OrderID)

	rec = s.do(t, http.MethodPost, path, token(t, 20, "owner"), `{"title":"Heads up","message":"Five more minutes"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[transport.CountResponse](t, rec).Count)

	rec = s.do(t, http.MethodPost, path, token(t, 20, "owner"), `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
