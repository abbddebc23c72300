package auth

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/comic_reader/internal/logging"
	authmw "github.com/Skotchmaster/comic_reader/internal/middleware/auth"
	"github.com/Skotchmaster/comic_reader/internal/service"
)

// UserHandler serves routes behind the decode hook.
type UserHandler struct {
	Svc *service.AuthService
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "user_change_password")

	caller, ok := authmw.CallerFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("change_password_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ChangePassword(c.Request().Context(), caller, req.OldPassword, req.NewPassword); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, Envelope{Message: "password changed"})
}

func (h *UserHandler) Me(c echo.Context) error {
	caller, ok := authmw.CallerFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	user, err := h.Svc.Me(c.Request().Context(), caller)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, Envelope{Message: "ok", Result: toUserResponse(user)})
}

func (h *UserHandler) GetUser(c echo.Context) error {
	caller, ok := authmw.CallerFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	user, err := h.Svc.GetUser(c.Request().Context(), caller, uint(id))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, Envelope{Message: "ok", Result: toUserResponse(user)})
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	res, err := h.Svc.ListUsers(c.Request().Context(), page, size)
	if err != nil {
		return httpError(err)
	}

	out := userListResponse{Total: res.Total, Page: res.Page, Size: res.Size, Items: make([]userResponse, 0, len(res.Items))}
	for i := range res.Items {
		out.Items = append(out.Items, toUserResponse(&res.Items[i]))
	}
	return c.JSON(http.StatusOK, Envelope{Message: "ok", Result: out})
}
