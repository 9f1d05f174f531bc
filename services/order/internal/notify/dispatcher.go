package notify

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/ezpickup/pkg/logging"
	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

// Outbox stores notification rows. A row must be claimed (pending to
// delivering) before it is pushed, and only a claimed row takes a result.
type Outbox interface {
	CreateNotifications(ctx context.Context, rows []*models.OrderNotification) error
	ClaimNotification(ctx context.Context, id uint, at time.Time) (bool, error)
	MarkPushResult(ctx context.Context, id uint, status models.PushStatus, at time.Time) error
	PendingNotifications(ctx context.Context, sentBefore time.Time, limit int) ([]models.OrderNotification, error)
}

type TokenStore interface {
	ActivePushTokens(ctx context.Context, userID uint) ([]models.PushToken, error)
	DeactivatePushToken(ctx context.Context, token string) error
}

type OrderReader interface {
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
}

type StoreReader interface {
	StoreByID(ctx context.Context, id uint) (*models.StoreInfo, error)
}

type PushSender interface {
	Send(ctx context.Context, token string, msg PushMessage) error
}

type MessageSender interface {
	SendTemplate(ctx context.Context, to string, tpl Template, vars map[string]string) error
}

// Dispatcher turns order events into notification rows and delivers them.
// Rows are committed first; delivery is best-effort and never returns an
// error to the caller. Kakao may be nil, in which case templated messages are
// skipped.
type Dispatcher struct {
	Outbox Outbox
	Tokens TokenStore
	Orders OrderReader
	Stores StoreReader
	Push   PushSender
	Kakao  MessageSender

	LinkBaseURL string
	// Async runs delivery in the background after the rows are committed.
	Async bool
	Now   func() time.Time

	wg sync.WaitGroup
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// OrderCreated notifies the customer (when identified) and the store owner.
// It returns the number of rows written.
func (d *Dispatcher) OrderCreated(ctx context.Context, order *models.Order, store *models.StoreInfo) int {
	return d.Notify(ctx, order.ID, createdNotices(order, store)...)
}

// StatusChanged notifies recipients of a committed transition and sends the
// templated message to a guest phone when the status has a template.
func (d *Dispatcher) StatusChanged(ctx context.Context, orderID uint, status models.OrderStatus) int {
	l := logging.FromContext(ctx).With("svc", "notify.status_changed", "order_id", orderID, "status", status)

	order, err := d.Orders.GetOrder(ctx, orderID)
	if err != nil {
		l.Warn("load_order_failed", "error", err)
		return 0
	}
	store, err := d.Stores.StoreByID(ctx, order.StoreID)
	if err != nil {
		l.Warn("load_store_failed", "error", err)
		return 0
	}

	n := d.Notify(ctx, order.ID, statusNotices(order, store, status)...)

	if order.CustomerPhone != nil && *order.CustomerPhone != "" {
		d.messageGuest(ctx, order, store, status)
	}
	return n
}

// Notify persists one row per notice and hands them to delivery.
func (d *Dispatcher) Notify(ctx context.Context, orderID uint, notices ...Notice) int {
	if len(notices) == 0 {
		return 0
	}
	l := logging.FromContext(ctx).With("svc", "notify.notify", "order_id", orderID)

	now := d.now()
	rows := make([]*models.OrderNotification, 0, len(notices))
	for _, n := range notices {
		rows = append(rows, &models.OrderNotification{
			OrderID:       orderID,
			RecipientID:   n.RecipientID,
			RecipientType: n.RecipientType,
			Type:          n.Type,
			Title:         n.Title,
			Message:       n.Message,
			SentAt:        now,
			PushStatus:    models.PushPending,
		})
	}
	if err := d.Outbox.CreateNotifications(ctx, rows); err != nil {
		l.Warn("persist_notifications_failed", "count", len(rows), "error", err)
		return 0
	}

	if d.Async {
		bg := context.WithoutCancel(ctx)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliverAll(bg, rows)
		}()
	} else {
		d.deliverAll(ctx, rows)
	}
	return len(rows)
}

// Wait blocks until background deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliverAll(ctx context.Context, rows []*models.OrderNotification) {
	for _, row := range rows {
		d.deliver(ctx, row)
	}
}

// deliver pushes one row if this worker wins the claim on it. It reports
// whether the row was claimed.
func (d *Dispatcher) deliver(ctx context.Context, row *models.OrderNotification) bool {
	l := logging.FromContext(ctx).With("svc", "notify.deliver", "notification_id", row.ID, "recipient_id", row.RecipientID)

	claimed, err := d.Outbox.ClaimNotification(ctx, row.ID, d.now())
	if err != nil {
		l.Warn("claim_failed", "error", err)
		return false
	}
	if !claimed {
		l.Debug("already_claimed")
		return false
	}

	status := d.push(ctx, row)
	if err := d.Outbox.MarkPushResult(ctx, row.ID, status, d.now()); err != nil {
		l.Warn("mark_push_result_failed", "status", status, "error", err)
	}
	return true
}

func (d *Dispatcher) push(ctx context.Context, row *models.OrderNotification) models.PushStatus {
	l := logging.FromContext(ctx).With("svc", "notify.push", "notification_id", row.ID, "recipient_id", row.RecipientID)

	if d.Push == nil {
		return models.PushSkipped
	}
	tokens, err := d.Tokens.ActivePushTokens(ctx, row.RecipientID)
	if err != nil {
		l.Warn("load_tokens_failed", "error", err)
		return models.PushFailed
	}
	if len(tokens) == 0 {
		return models.PushSkipped
	}

	msg := PushMessage{
		Title: row.Title,
		Body:  row.Message,
		Data: map[string]string{
			"notificationId": strconv.FormatUint(uint64(row.ID), 10),
			"orderId":        strconv.FormatUint(uint64(row.OrderID), 10),
			"type":           row.Type,
		},
	}

	status := models.PushFailed
	for _, t := range tokens {
		err := d.Push.Send(ctx, t.Token, msg)
		if err == nil {
			status = models.PushSent
			continue
		}
		l.Warn("push_failed", "device_id", t.DeviceID, "error", err)
		if errors.Is(err, ErrTokenUnregistered) {
			if derr := d.Tokens.DeactivatePushToken(ctx, t.Token); derr != nil {
				l.Warn("deactivate_token_failed", "device_id", t.DeviceID, "error", derr)
			}
		}
	}
	return status
}

func (d *Dispatcher) messageGuest(ctx context.Context, order *models.Order, store *models.StoreInfo, status models.OrderStatus) {
	if d.Kakao == nil {
		return
	}
	tpl, ok := TemplateFor(status)
	if !ok {
		return
	}
	l := logging.FromContext(ctx).With("svc", "notify.kakao", "order_id", order.ID, "template", tpl.Code)

	vars := templateVars(order, store, d.OrderLink(order.OrderNumber))
	if err := d.Kakao.SendTemplate(ctx, *order.CustomerPhone, tpl, vars); err != nil {
		l.Warn("kakao_send_failed", "error", err)
		return
	}
	l.Info("kakao_sent")
}

func (d *Dispatcher) OrderLink(orderNumber string) string {
	return strings.TrimRight(d.LinkBaseURL, "/") + "/u/order/" + orderNumber
}

// DeliverPending retries rows that were committed but never attempted, e.g.
// because the process stopped between commit and delivery. Rows claimed by
// another worker are left alone. It returns the number of rows it delivered.
func (d *Dispatcher) DeliverPending(ctx context.Context, grace time.Duration, limit int) (int, error) {
	rows, err := d.Outbox.PendingNotifications(ctx, d.now().Add(-grace), limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range rows {
		if d.deliver(ctx, &rows[i]) {
			n++
		}
	}
	return n, nil
}
