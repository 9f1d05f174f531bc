package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ezpickup/pkg/authclient"
	"github.com/Skotchmaster/ezpickup/pkg/logging"
	"github.com/Skotchmaster/ezpickup/pkg/tokens"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"

	CtxUserID = "user_id"
	CtxRole   = "role"
)

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken, accessToken string) (*authclient.RefreshResponse, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret  []byte
	AuthClient Refresher
}

func NewAutoRefreshMiddleware(secret []byte, authClient Refresher) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret:  secret,
		AuthClient: authClient,
	}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.authenticate(next, nil, false)
}

// OptionalAuth sets the caller identity when a valid token is present and
// lets anonymous requests through untouched.
func (m *AutoRefreshMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.authenticate(next, nil, true)
}

func (m *AutoRefreshMiddleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.authenticate(next, func(claims *tokens.AccessClaims) error {
			if !slices.Contains(roles, claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "role not allowed")
			}
			return nil
		}, false)
	}
}

func (m *AutoRefreshMiddleware) authenticate(next echo.HandlerFunc, validator ValidatorFunc, optional bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

		raw, fromCookie := accessToken(c)
		if raw == "" {
			if optional {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil && errors.Is(err, jwt.ErrTokenExpired) && fromCookie && m.AuthClient != nil {
			claims, err = m.refresh(c, raw)
		}
		if err != nil {
			l.Warn("auth_failed", "status", 401, "error", err)
			if fromCookie {
				clearAuthCookies(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		if _, err := claims.UserID(); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
		}
		if validator != nil {
			if err := validator(claims); err != nil {
				return err
			}
		}

		setUserContext(c, claims)
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) refresh(c echo.Context, access string) (*tokens.AccessClaims, error) {
	rc, err := c.Cookie(refreshCookie)
	if err != nil || rc.Value == "" {
		return nil, errors.New("refresh token missing")
	}

	resp, err := m.AuthClient.RefreshTokens(c.Request().Context(), rc.Value, access)
	if err != nil {
		return nil, err
	}

	c.SetCookie(createCookie(accessCookie, resp.AccessToken, time.Unix(resp.AccessExp, 0)))
	c.SetCookie(createCookie(refreshCookie, resp.RefreshToken, time.Unix(resp.RefreshExp, 0)))

	return tokens.AccessClaimsFromToken(resp.AccessToken, m.JWTSecret)
}

func accessToken(c echo.Context) (string, bool) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), false
	}
	if ck, err := c.Cookie(accessCookie); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return "", false
}

func createCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func clearAuthCookies(c echo.Context) {
	for _, name := range []string{accessCookie, refreshCookie} {
		c.SetCookie(&http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
}
