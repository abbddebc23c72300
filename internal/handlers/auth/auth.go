package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/comic_reader/internal/logging"
	authmw "github.com/Skotchmaster/comic_reader/internal/middleware/auth"
	"github.com/Skotchmaster/comic_reader/internal/service"
)

type AuthHandler struct {
	Svc           *service.AuthService
	SecureCookies bool
}

func (h *AuthHandler) Register(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var dob time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			l.Warn("register_error", "status", 400, "reason", "bad_date_of_birth")
			return echo.NewHTTPError(http.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
		}
		dob = parsed
	}

	user, err := h.Svc.Register(c.Request().Context(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		DateOfBirth: dob,
		IsMale:      req.IsMale,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, Envelope{Message: "registered", Result: toUserResponse(user)})
}

func (h *AuthHandler) Login(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(CreateCookie(authmw.AccessCookie, res.Token, "/", res.ExpiresAt, h.SecureCookies))
	return c.JSON(http.StatusOK, Envelope{Message: "login successful", Result: res})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	raw := tokenFromRequest(c)
	if err := h.Svc.Logout(c.Request().Context(), raw); err != nil {
		return httpError(err)
	}
	c.SetCookie(DeleteCookie(authmw.AccessCookie, "/"))
	return c.JSON(http.StatusOK, Envelope{Message: "logged out"})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := tokenFromRequest(c)
	res, err := h.Svc.Refresh(c.Request().Context(), raw)
	if err != nil {
		return httpError(err)
	}
	c.SetCookie(CreateCookie(authmw.AccessCookie, res.Token, "/", res.ExpiresAt, h.SecureCookies))
	return c.JSON(http.StatusOK, Envelope{Message: "token refreshed", Result: res})
}

func (h *AuthHandler) Introspect(c echo.Context) error {
	raw := tokenFromRequest(c)
	res, err := h.Svc.Introspect(c.Request().Context(), raw)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, Envelope{Message: "introspected", Result: res})
}

// tokenFromRequest prefers {"token": ...} in the body, then the bearer header,
// then the access cookie.
func tokenFromRequest(c echo.Context) string {
	var req tokenRequest
	if c.Request().ContentLength != 0 {
		_ = c.Bind(&req)
	}
	if t := strings.TrimSpace(req.Token); t != "" {
		return t
	}
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if ck, err := c.Cookie(authmw.AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}
