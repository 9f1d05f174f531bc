package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ezpickup/pkg/logging"
	"github.com/Skotchmaster/ezpickup/services/order/internal/authz"
	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
	"github.com/Skotchmaster/ezpickup/services/order/internal/notify"
	"github.com/Skotchmaster/ezpickup/services/order/internal/repo"
	"github.com/Skotchmaster/ezpickup/services/order/internal/search"
	"github.com/Skotchmaster/ezpickup/services/order/internal/transport"
	"github.com/Skotchmaster/ezpickup/services/order/internal/util"
)

const (
	defaultCancelReason = "고객 요청으로 취소"

	defaultOrderLimit = 10
	maxOrderLimit     = 100
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	TransitionOrder(ctx context.Context, order *models.Order, expectedVersion int, entry *models.OrderStatusHistory) error
	ListOrders(ctx context.Context, f repo.OrderFilter) (int64, []models.Order, error)
}

type CatalogLookup interface {
	ResolveMenuItems(ctx context.Context, storeID uint, ids []uint) (map[uint]models.MenuItem, error)
	ResolveOptionItems(ctx context.Context, ids []uint) (map[uint]models.OptionItem, error)
}

type StoreDirectory interface {
	StoreByDomain(ctx context.Context, domain string) (*models.StoreInfo, error)
	StoreByID(ctx context.Context, id uint) (*models.StoreInfo, error)
}

// Notifier is the notification dispatcher. It swallows its own failures.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order, store *models.StoreInfo) int
	StatusChanged(ctx context.Context, orderID uint, status models.OrderStatus) int
	Notify(ctx context.Context, orderID uint, notices ...notify.Notice) int
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type OrderIndex interface {
	IndexOrder(ctx context.Context, doc search.OrderDocument) error
	SearchOrders(ctx context.Context, storeID uint, query string, from, size int) (int64, []search.OrderDocument, error)
}

// OrderService owns order creation, the status lifecycle and the order read
// paths. Events and Index are optional.
type OrderService struct {
	Orders   OrderStore
	Catalog  CatalogLookup
	Stores   StoreDirectory
	Notifier Notifier

	Events      EventPublisher
	EventsTopic string
	Index       OrderIndex

	Now            func() time.Time
	NewOrderNumber func(now time.Time) string
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// NewOrderNumber returns ORD-{YYYYMMDD}-{4 random digits}. Uniqueness is left
// to the database constraint.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", now.UTC().Format("20060102"), rand.IntN(10000))
}

func (s *OrderService) orderNumber(now time.Time) string {
	if s.NewOrderNumber != nil {
		return s.NewOrderNumber(now)
	}
	return NewOrderNumber(now)
}

// CreateOrder prices and stores a new order. actor is nil for guests, who
// must then supply a name and phone.
func (s *OrderService) CreateOrder(ctx context.Context, actor *authz.Actor, req transport.CreateOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create_order", "store_domain", req.StoreDomain)

	if err := validateLines(req.Items); err != nil {
		return nil, err
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}

	order := &models.Order{
		Status:         models.StatusPending,
		PaymentStatus:  models.PaymentPending,
		PaymentMethod:  req.PaymentMethod,
		DiscountAmount: decimal.Zero,
		CustomerNote:   req.CustomerNote,
		Version:        1,
	}
	if actor != nil {
		id := actor.UserID
		order.CustomerID = &id
	} else {
		if req.GuestInfo == nil || strings.TrimSpace(req.GuestInfo.Name) == "" || strings.TrimSpace(req.GuestInfo.Phone) == "" {
			return nil, fmt.Errorf("%w: guest name and phone are required", ErrValidation)
		}
		name, phone := strings.TrimSpace(req.GuestInfo.Name), strings.TrimSpace(req.GuestInfo.Phone)
		order.CustomerName = &name
		order.CustomerPhone = &phone
		order.IsGuestOrder = true
	}

	store, err := s.Stores.StoreByDomain(ctx, req.StoreDomain)
	if err != nil {
		return nil, storeErr(err, "store")
	}
	if !store.IsAcceptingOrders {
		return nil, fmt.Errorf("%w: store is not accepting orders", ErrValidation)
	}

	menuIDs, optionIDs := lineIDs(req.Items)
	menu, err := s.Catalog.ResolveMenuItems(ctx, store.ID, menuIDs)
	if err != nil {
		return nil, storeErr(err, "menu item")
	}
	options, err := s.Catalog.ResolveOptionItems(ctx, optionIDs)
	if err != nil {
		return nil, storeErr(err, "option")
	}

	priced, err := PriceOrder(req.Items, CatalogSnapshot{Menu: menu, Options: options})
	if err != nil {
		return nil, err
	}

	now := s.now()
	order.StoreID = store.ID
	order.OrderNumber = s.orderNumber(now)
	order.Items = priced.Items
	order.TotalAmount = priced.Total
	order.FinalAmount = priced.Total.Sub(order.DiscountAmount)
	order.PickupTime = now
	if req.PickupTime != nil {
		order.PickupTime = req.PickupTime.UTC()
	}

	if err := s.Orders.CreateOrder(ctx, order); err != nil {
		return nil, storeErr(err, "order number")
	}
	l.Info("order_created", "order_id", order.ID, "order_number", order.OrderNumber, "final_amount", order.FinalAmount.String())

	s.Notifier.OrderCreated(ctx, order, store)
	s.afterCommit(ctx, EventOrderCreated, order, store, nil)
	return order, nil
}

// UpdateStatus moves an order along the lifecycle on behalf of the store.
func (s *OrderService) UpdateStatus(ctx context.Context, actor authz.Actor, orderID uint, req transport.UpdateOrderStatusRequest) (*models.Order, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	if req.Status == models.StatusCanceled {
		return nil, fmt.Errorf("%w: orders can only be canceled by the customer", ErrValidation)
	}

	order, store, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, resourceOf(order, store), authz.UpdateOrderStatus); err != nil {
		return nil, storeErr(err, "order")
	}

	var reason string
	if req.RejectionReason != nil {
		reason = strings.TrimSpace(*req.RejectionReason)
	}
	if err := ValidateTransition(order.Status, req.Status, reason); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, order, store, req.Status, reason)
}

// CancelOrder is the customer's own cancellation of a pending order.
func (s *OrderService) CancelOrder(ctx context.Context, actor authz.Actor, orderID uint, reason string) (*models.Order, error) {
	order, store, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, resourceOf(order, store), authz.CancelOrder); err != nil {
		return nil, storeErr(err, "order")
	}
	if order.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: order in status %s can no longer be canceled", ErrValidation, order.Status)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultCancelReason
	}
	return s.transition(ctx, actor, order, store, models.StatusCanceled, reason)
}

func (s *OrderService) transition(ctx context.Context, actor authz.Actor, order *models.Order, store *models.StoreInfo, to models.OrderStatus, reason string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.transition", "order_id", order.ID)

	from := order.Status
	expected := order.Version
	now := s.now()
	ApplyTransition(order, to, reason, now)

	changedBy := actor.UserID
	entry := &models.OrderStatusHistory{
		PreviousStatus: &from,
		NewStatus:      to,
		ChangedBy:      &changedBy,
		ChangedAt:      now,
	}
	if reason != "" {
		entry.Reason = &reason
	}

	if err := s.Orders.TransitionOrder(ctx, order, expected, entry); err != nil {
		return nil, storeErr(err, "order")
	}
	order.StatusHistory = append(order.StatusHistory, *entry)
	l.Info("order_status_changed", "from", from, "to", to, "actor_id", actor.UserID)

	s.Notifier.StatusChanged(ctx, order.ID, to)
	s.afterCommit(ctx, EventOrderStatusChanged, order, store, &from)
	return order, nil
}

func (s *OrderService) load(ctx context.Context, orderID uint) (*models.Order, *models.StoreInfo, error) {
	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, storeErr(err, "order")
	}
	store, err := s.Stores.StoreByID(ctx, order.StoreID)
	if err != nil {
		return nil, nil, storeErr(err, "store")
	}
	return order, store, nil
}

func resourceOf(order *models.Order, store *models.StoreInfo) authz.Resource {
	return authz.Resource{CustomerID: order.CustomerID, StoreOwnerID: store.OwnerUserID}
}

// NotifyCustomer sends a free-form notification from the store to the
// order's customer. Guest orders have no app recipient.
func (s *OrderService) NotifyCustomer(ctx context.Context, actor authz.Actor, orderID uint, req transport.CustomNotificationRequest) (int, error) {
	title, msg := strings.TrimSpace(req.Title), strings.TrimSpace(req.Message)
	if title == "" || msg == "" {
		return 0, fmt.Errorf("%w: title and message are required", ErrValidation)
	}

	order, store, err := s.load(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if err := authz.Authorize(actor, resourceOf(order, store), authz.NotifyCustomer); err != nil {
		return 0, storeErr(err, "order")
	}
	if order.CustomerID == nil {
		return 0, fmt.Errorf("%w: guest orders cannot receive app notifications", ErrValidation)
	}

	n := s.Notifier.Notify(ctx, order.ID, notify.Notice{
		RecipientID:   *order.CustomerID,
		RecipientType: models.RecipientCustomer,
		Type:          notify.TypeCustom,
		Title:         title,
		Message:       msg,
	})
	return n, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actor authz.Actor, orderID uint) (*models.Order, error) {
	order, store, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, resourceOf(order, store), authz.ViewOrder); err != nil {
		return nil, storeErr(err, "order")
	}
	return order, nil
}

func (s *OrderService) GetOrderByNumber(ctx context.Context, actor authz.Actor, number string) (*models.Order, error) {
	order, err := s.Orders.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	store, err := s.Stores.StoreByID(ctx, order.StoreID)
	if err != nil {
		return nil, storeErr(err, "store")
	}
	if err := authz.Authorize(actor, resourceOf(order, store), authz.ViewOrder); err != nil {
		return nil, storeErr(err, "order")
	}
	return order, nil
}

// TrackGuestOrder lets a guest look up an order by its number and the phone
// given at checkout. A wrong phone looks exactly like a missing order.
func (s *OrderService) TrackGuestOrder(ctx context.Context, number, phone string) (*models.Order, error) {
	phone = normalizePhone(phone)
	if number == "" || phone == "" {
		return nil, fmt.Errorf("%w: order number and phone are required", ErrValidation)
	}

	order, err := s.Orders.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	if order.CustomerPhone == nil || normalizePhone(*order.CustomerPhone) != phone {
		return nil, fmt.Errorf("%w: order not found", ErrNotFound)
	}
	return order, nil
}

func normalizePhone(p string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(p))
}

var sortFields = map[string]bool{"created_at": true, "pickup_time": true, "status": true}

// ListOrders returns one page of orders visible to the actor. Customers only
// see their own orders; owners must name a store they own.
func (s *OrderService) ListOrders(ctx context.Context, actor authz.Actor, q transport.OrderQuery) (transport.Page[models.Order], error) {
	f := repo.OrderFilter{
		StoreID:       q.StoreID,
		CustomerID:    q.CustomerID,
		OrderNumber:   strings.TrimSpace(q.OrderNumber),
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		PickupFrom:    q.PickupFrom,
		PickupTo:      q.PickupTo,
		CreatedFrom:   q.CreatedFrom,
		CreatedTo:     q.CreatedTo,
		ActiveOnly:    q.ActiveOnly,
		SortBy:        q.SortBy,
		SortOrder:     strings.ToUpper(q.SortOrder),
	}

	if f.Status != "" && !f.Status.Valid() {
		return transport.Page[models.Order]{}, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return transport.Page[models.Order]{}, fmt.Errorf("%w: unknown payment status %q", ErrValidation, f.PaymentStatus)
	}
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if !sortFields[f.SortBy] {
		return transport.Page[models.Order]{}, fmt.Errorf("%w: cannot sort by %q", ErrValidation, q.SortBy)
	}
	switch f.SortOrder {
	case "":
		f.SortOrder = "DESC"
	case "ASC", "DESC":
	default:
		return transport.Page[models.Order]{}, fmt.Errorf("%w: sort order must be ASC or DESC", ErrValidation)
	}

	switch actor.Role {
	case authz.RoleCustomer:
		id := actor.UserID
		f.CustomerID = &id
	case authz.RoleOwner:
		if f.StoreID == nil {
			return transport.Page[models.Order]{}, fmt.Errorf("%w: store_id is required", ErrValidation)
		}
		if err := s.authorizeStore(ctx, actor, *f.StoreID); err != nil {
			return transport.Page[models.Order]{}, err
		}
	case authz.RoleAdmin:
	default:
		return transport.Page[models.Order]{}, fmt.Errorf("%w: unknown role", ErrForbidden)
	}

	page, limit := clampPage(q.Page, q.Limit, defaultOrderLimit, maxOrderLimit)
	f.Offset, f.Limit = util.Calculate(page, limit)

	total, orders, err := s.Orders.ListOrders(ctx, f)
	if err != nil {
		return transport.Page[models.Order]{}, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return transport.Page[models.Order]{Data: orders, Meta: transport.NewPageMeta(total, page, limit)}, nil
}

// SearchOrders is the owner's full-text search over the order index.
func (s *OrderService) SearchOrders(ctx context.Context, actor authz.Actor, q transport.OrderSearchQuery) (transport.Page[search.OrderDocument], error) {
	if s.Index == nil {
		return transport.Page[search.OrderDocument]{}, fmt.Errorf("%w: order search is not configured", ErrUnavailable)
	}
	if q.StoreID == 0 || strings.TrimSpace(q.Query) == "" {
		return transport.Page[search.OrderDocument]{}, fmt.Errorf("%w: store_id and q are required", ErrValidation)
	}
	if err := s.authorizeStore(ctx, actor, q.StoreID); err != nil {
		return transport.Page[search.OrderDocument]{}, err
	}

	page, size := clampPage(q.Page, q.Size, util.DefaultPageSize, maxOrderLimit)
	from, _ := util.Calculate(page, size)

	total, docs, err := s.Index.SearchOrders(ctx, q.StoreID, strings.TrimSpace(q.Query), from, size)
	if err != nil {
		return transport.Page[search.OrderDocument]{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if docs == nil {
		docs = []search.OrderDocument{}
	}
	return transport.Page[search.OrderDocument]{Data: docs, Meta: transport.NewPageMeta(total, page, size)}, nil
}

func (s *OrderService) authorizeStore(ctx context.Context, actor authz.Actor, storeID uint) error {
	store, err := s.Stores.StoreByID(ctx, storeID)
	if err != nil {
		return storeErr(err, "store")
	}
	if err := authz.Authorize(actor, authz.Resource{StoreOwnerID: store.OwnerUserID}, authz.ListStoreOrders); err != nil {
		return storeErr(err, "store")
	}
	return nil
}

func clampPage(page, limit, def, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// afterCommit publishes the order event and refreshes the search document.
// Both are best-effort.
func (s *OrderService) afterCommit(ctx context.Context, eventType string, order *models.Order, store *models.StoreInfo, previous *models.OrderStatus) {
	l := logging.FromContext(ctx).With("svc", "order.after_commit", "order_id", order.ID, "event", eventType)

	if s.Events != nil && s.EventsTopic != "" {
		ev := newOrderEvent(eventType, order, previous, s.now())
		if err := s.Events.PublishEvent(ctx, s.EventsTopic, order.OrderNumber, ev); err != nil {
			l.Warn("publish_event_failed", "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.IndexOrder(ctx, search.NewDocument(order, store.Name)); err != nil {
			l.Warn("index_order_failed", "error", err)
		}
	}
}
