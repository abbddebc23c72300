package auth

import (
	"context"
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/comic_reader/internal/logging"
	"github.com/Skotchmaster/comic_reader/internal/service"
	"github.com/Skotchmaster/comic_reader/internal/tokens"
)

const (
	claimsKey = "claims"
	callerKey = "caller"

	AccessCookie = "accessToken"
)

type Decoder interface {
	Decode(ctx context.Context, raw string) (*tokens.Claims, error)
}

// DecodeHook rejects the request unless the bearer header or the access
// cookie holds a token that introspects as valid. On success the verified
// claims and the resolved service.Caller are stored on the echo context.
func DecodeHook(d Decoder) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:Authorization:Bearer ,cookie:" + AccessCookie,
		ParseTokenFunc: func(c echo.Context, raw string) (any, error) {
			return d.Decode(c.Request().Context(), raw)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := claimsFrom(c)
			if !ok {
				return
			}
			c.Set(callerKey, service.Caller{Username: claims.Subject, Scope: claims.Scope})
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context()).With("mw", "decode_hook")
			if errors.Is(err, service.ErrInvalidToken) {
				l.Warn("token_rejected", "status", 401, "reason", "invalid_token")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			l.Warn("token_rejected", "status", 401, "reason", "missing_token")
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		},
	})
}

func CallerFrom(c echo.Context) (service.Caller, bool) {
	caller, ok := c.Get(callerKey).(service.Caller)
	return caller, ok
}

func claimsFrom(c echo.Context) (*tokens.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*tokens.Claims)
	return claims, ok
}

// RequireScope must run after DecodeHook.
func RequireScope(scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := CallerFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}
			if caller.Scope != scope {
				logging.FromContext(c.Request().Context()).Warn("scope_denied",
					"status", 403, "username", caller.Username, "need", scope, "have", caller.Scope)
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
