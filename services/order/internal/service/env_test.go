package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/ezpickup/pkg/db"
	"github.com/Skotchmaster/ezpickup/services/order/internal/authz"
	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
	"github.com/Skotchmaster/ezpickup/services/order/internal/notify"
	"github.com/Skotchmaster/ezpickup/services/order/internal/repo"
	"github.com/Skotchmaster/ezpickup/services/order/internal/search"
	"github.com/Skotchmaster/ezpickup/services/order/internal/transport"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

var (
	customer      = authz.Actor{UserID: 10, Role: authz.RoleCustomer}
	otherCustomer = authz.Actor{UserID: 11, Role: authz.RoleCustomer}
	owner         = authz.Actor{UserID: 20, Role: authz.RoleOwner}
	otherOwner    = authz.Actor{UserID: 21, Role: authz.RoleOwner}
	admin         = authz.Actor{UserID: 1, Role: authz.RoleAdmin}
)

type sentTemplate struct {
	to   string
	code string
	vars map[string]string
}

type recordingKakao struct {
	mu   sync.Mutex
	sent []sentTemplate
}

func (k *recordingKakao) SendTemplate(_ context.Context, to string, tpl notify.Template, vars map[string]string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sent = append(k.sent, sentTemplate{to: to, code: tpl.Code, vars: vars})
	return nil
}

type recordingEvents struct {
	mu     sync.Mutex
	topic  string
	keys   []string
	events []OrderEvent
}

func (e *recordingEvents) PublishEvent(_ context.Context, topic, key string, event any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topic = topic
	e.keys = append(e.keys, key)
	e.events = append(e.events, event.(OrderEvent))
	return nil
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[uint]search.OrderDocument
	storeID uint
	query   string
}

func (f *fakeIndex) IndexOrder(_ context.Context, doc search.OrderDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = map[uint]search.OrderDocument{}
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) SearchOrders(_ context.Context, storeID uint, query string, from, size int) (int64, []search.OrderDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storeID, f.query = storeID, query
	var out []search.OrderDocument
	for _, d := range f.docs {
		if d.StoreID == storeID {
			out = append(out, d)
		}
	}
	return int64(len(out)), out, nil
}

type testEnv struct {
	db       *gorm.DB
	repo     *repo.GormRepo
	orders   *OrderService
	payments *PaymentService
	notes    *NotificationService
	kakao    *recordingKakao
	events   *recordingEvents
	index    *fakeIndex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), pkgdb.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repo.Migrate(db))
	require.NoError(t, repo.MigrateCatalog(db))
	seedCatalog(t, db)

	r := &repo.GormRepo{DB: db}
	now := func() time.Time { return fixedNow }
	kakao := &recordingKakao{}
	events := &recordingEvents{}
	index := &fakeIndex{}

	dispatcher := &notify.Dispatcher{
		Outbox:      r,
		Tokens:      r,
		Orders:      r,
		Stores:      r,
		Kakao:       kakao,
		LinkBaseURL: "https://ezpickup.example",
		Now:         now,
	}

	var seq int
	return &testEnv{
		db:   db,
		repo: r,
		orders: &OrderService{
			Orders:      r,
			Catalog:     r,
			Stores:      r,
			Notifier:    dispatcher,
			Events:      events,
			EventsTopic: "order_events",
			Index:       index,
			Now:         now,
			NewOrderNumber: func(now time.Time) string {
				seq++
				return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), seq)
			},
		},
		payments: &PaymentService{Store: r, Stores: r, Now: now},
		notes:    &NotificationService{Store: r, Now: now},
		kakao:    kakao,
		events:   events,
		index:    index,
	}
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&[]models.Store{
		{ID: 1, Name: "Cafe", Domain: "cafe.example", OwnerUserID: 20},
		{ID: 2, Name: "Closed", Domain: "closed.example", OwnerUserID: 21},
	}).Error)
	require.NoError(t, db.Create(&[]models.StoreOperationStatus{
		{StoreID: 1, IsAcceptingOrders: true},
		{StoreID: 2, IsAcceptingOrders: false},
	}).Error)
	require.NoError(t, db.Create(&[]models.MenuItem{
		{ID: 7, StoreID: 1, Name: "Americano", Price: decimal.NewFromInt(4000), IsAvailable: true},
		{ID: 8, StoreID: 1, Name: "Latte", Price: decimal.NewFromInt(5000), DiscountedPrice: decimal.NewNullDecimal(decimal.NewFromInt(4500)), IsAvailable: true},
		{ID: 9, StoreID: 1, Name: "Sold out", Price: decimal.NewFromInt(3000), IsAvailable: false},
		{ID: 12, StoreID: 2, Name: "Tea", Price: decimal.NewFromInt(3000), IsAvailable: true},
	}).Error)
	require.NoError(t, db.Create(&[]models.OptionItem{
		{ID: 3, GroupID: 1, Name: "Extra shot", Price: decimal.NewFromInt(500), IsAvailable: true},
		{ID: 4, GroupID: 1, Name: "Oat milk", Price: decimal.NewFromInt(700), IsAvailable: false},
	}).Error)
}

func guestRequest() transport.CreateOrderRequest {
	return transport.CreateOrderRequest{
		StoreDomain:   "cafe.example",
		Items:         []transport.OrderItemInput{{MenuItemID: 7, Quantity: 2}},
		PaymentMethod: models.MethodCash,
		GuestInfo:     &transport.GuestInfo{Name: "Hong", Phone: "010-1111-2222"},
	}
}

func memberRequest() transport.CreateOrderRequest {
	return transport.CreateOrderRequest{
		StoreDomain:   "cafe.example",
		Items:         []transport.OrderItemInput{{MenuItemID: 7, Quantity: 1}},
		PaymentMethod: models.MethodCreditCard,
	}
}

func (e *testEnv) createMember(t *testing.T) *models.Order {
	t.Helper()
	o, err := e.orders.CreateOrder(context.Background(), &customer, memberRequest())
	require.NoError(t, err)
	return o
}

func (e *testEnv) createGuest(t *testing.T) *models.Order {
	t.Helper()
	o, err := e.orders.CreateOrder(context.Background(), nil, guestRequest())
	require.NoError(t, err)
	return o
}

func (e *testEnv) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (e *testEnv) notifications(t *testing.T, orderID uint) int64 {
	return e.count(t, &models.OrderNotification{}, "order_id = ?", orderID)
}

func (e *testEnv) history(t *testing.T, orderID uint) int64 {
	return e.count(t, &models.OrderStatusHistory{}, "order_id = ?", orderID)
}
