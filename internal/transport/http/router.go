package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	authhdl "github.com/Skotchmaster/comic_reader/internal/handlers/auth"
	"github.com/Skotchmaster/comic_reader/internal/logging"
	authmw "github.com/Skotchmaster/comic_reader/internal/middleware/auth"
	"github.com/Skotchmaster/comic_reader/internal/middleware/csrf"
	"github.com/Skotchmaster/comic_reader/internal/models"
)

type Deps struct {
	AuthHandler *authhdl.AuthHandler
	UserHandler *authhdl.UserHandler
	Decoder     authmw.Decoder
	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			logging.FromContext(ctx).Warn("not_ready", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.SessionCookie = authmw.AccessCookie

	v1 := e.Group("/api/v1", csrf.Middleware(csrfCfg))

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/introspect", d.AuthHandler.Introspect)

	users := v1.Group("/users", authmw.DecodeHook(d.Decoder))
	users.POST("/change-password", d.UserHandler.ChangePassword)
	users.GET("/me", d.UserHandler.Me)
	users.GET("/:id", d.UserHandler.GetUser)
	users.GET("", d.UserHandler.ListUsers, authmw.RequireScope(models.RoleAdmin.Scope()))
}
