package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ezpickup/pkg/authclient"
	"github.com/Skotchmaster/ezpickup/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

type fakeRefresher struct {
	resp *authclient.RefreshResponse
	err  error
}

func (f fakeRefresher) RefreshTokens(context.Context, string, string) (*authclient.RefreshResponse, error) {
	return f.resp, f.err
}

func sign(t *testing.T, sub, role string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(tokens.AccessClaims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub, ExpiresAt: jwt.NewNumericDate(exp)},
	}, secret)
	require.NoError(t, err)
	return tok
}

func run(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, echo.Context, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec, c, err
}

func httpCode(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	m := NewAutoRefreshMiddleware(secret, nil)
	valid := sign(t, "5", "customer", time.Now().Add(time.Minute))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		code   int
		userID string
	}{
		{name: "missing", setup: func(*http.Request) {}, code: http.StatusUnauthorized},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, userID: "5"},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "accessToken", Value: valid}) }, userID: "5"},
		{name: "garbage", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, code: http.StatusUnauthorized},
		{name: "non numeric subject", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+sign(t, "abc", "customer", time.Now().Add(time.Minute)))
		}, code: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)

			_, c, err := run(m.RequireAuth, req)
			if tt.code != 0 {
				assert.Equal(t, tt.code, httpCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userID, c.Get(CtxUserID))
			assert.Equal(t, "customer", c.Get(CtxRole))
		})
	}
}

func TestOptionalAuth_Anonymous(t *testing.T) {
	t.Parallel()

	m := NewAutoRefreshMiddleware(secret, nil)
	rec, c, err := run(m.OptionalAuth, httptest.NewRequest(http.MethodPost, "/orders", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get(CtxUserID))
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	m := NewAutoRefreshMiddleware(secret, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, "5", "customer", time.Now().Add(time.Minute)))

	_, _, err := run(m.RequireRole("owner", "admin"), req)
	assert.Equal(t, http.StatusForbidden, httpCode(err))
}

func TestRequireAuth_RefreshesExpiredCookie(t *testing.T) {
	t.Parallel()

	fresh := sign(t, "9", "owner", time.Now().Add(time.Minute))
	m := NewAutoRefreshMiddleware(secret, fakeRefresher{resp: &authclient.RefreshResponse{
		AccessToken:  fresh,
		RefreshToken: "r-new",
		AccessExp:    time.Now().Add(time.Minute).Unix(),
		RefreshExp:   time.Now().Add(time.Hour).Unix(),
	}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: sign(t, "9", "owner", time.Now().Add(-time.Minute))})
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "r-old"})

	rec, c, err := run(m.RequireAuth, req)
	require.NoError(t, err)
	assert.Equal(t, "9", c.Get(CtxUserID))
	assert.Len(t, rec.Result().Cookies(), 2)
}

func TestRequireAuth_RefreshFailureClearsCookies(t *testing.T) {
	t.Parallel()

	m := NewAutoRefreshMiddleware(secret, fakeRefresher{err: errors.New("down")})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: sign(t, "9", "owner", time.Now().Add(-time.Minute))})
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "r-old"})

	rec, _, err := run(m.RequireAuth, req)
	assert.Equal(t, http.StatusUnauthorized, httpCode(err))
	for _, ck := range rec.Result().Cookies() {
		assert.Equal(t, -1, ck.MaxAge)
	}
}
