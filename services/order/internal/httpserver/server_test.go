package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/ezpickup/pkg/db"
	"github.com/Skotchmaster/ezpickup/pkg/tokens"
	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
	"github.com/Skotchmaster/ezpickup/services/order/internal/notify"
	"github.com/Skotchmaster/ezpickup/services/order/internal/repo"
	"github.com/Skotchmaster/ezpickup/services/order/internal/service"
)

var testSecret = []byte("test-secret")

type testServer struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), pkgdb.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repo.Migrate(db))
	require.NoError(t, repo.MigrateCatalog(db))
	require.NoError(t, db.Create(&models.Store{ID: 1, Name: "Cafe", Domain: "cafe.example", OwnerUserID: 20}).Error)
	require.NoError(t, db.Create(&models.StoreOperationStatus{StoreID: 1, IsAcceptingOrders: true}).Error)
	require.NoError(t, db.Create(&models.MenuItem{ID: 7, StoreID: 1, Name: "Americano", Price: decimal.NewFromInt(4000), IsAvailable: true}).Error)

	r := &repo.GormRepo{DB: db}
	dispatcher := &notify.Dispatcher{Outbox: r, Tokens: r, Orders: r, Stores: r}

	var seq atomic.Int64
	e := echo.New()
	Register(e, &Deps{
		OrderHandler: &OrderHTTP{Svc: &service.OrderService{
			Orders:   r,
			Catalog:  r,
			Stores:   r,
			Notifier: dispatcher,
			NewOrderNumber: func(now time.Time) string {
				return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), seq.Add(1))
			},
		}},
		PaymentHandler:      &PaymentHTTP{Svc: &service.PaymentService{Store: r, Stores: r}},
		NotificationHandler: &NotificationHTTP{Svc: &service.NotificationService{Store: r}},
		JWTSecret:           testSecret,
	})
	return &testServer{e: e, db: db}
}

func token(t *testing.T, userID uint, role string) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)
	require.NoError(t, err)
	return tok
}

// do sends a request; an empty bearer means anonymous.
func (s *testServer) do(t *testing.T, method, path, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const (
	guestOrderBody  = `{"store_domain":"cafe.example","items":[{"menu_item_id":7,"quantity":2}],"payment_method":"cash","guest_info":{"name":"Hong","phone":"010-1111-2222"}}`
	memberOrderBody = `{"store_domain":"cafe.example","items":[{"menu_item_id":7,"quantity":1}],"payment_method":"credit_card"}`
)
