package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/comic_reader/internal/service"
)

var statusByErr = []struct {
	err    error
	status int
}{
	{service.ErrWrongCredentials, http.StatusUnauthorized},
	{service.ErrUsernameOrEmailTaken, http.StatusConflict},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrTokenRequired, http.StatusBadRequest},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrWrongPassword, http.StatusBadRequest},
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrForbidden, http.StatusForbidden},
}

// httpError turns a service failure into its HTTP status. Only the sentinel's
// own text reaches the client.
func httpError(err error) *echo.HTTPError {
	for _, m := range statusByErr {
		if errors.Is(err, m.err) {
			return echo.NewHTTPError(m.status, m.err.Error())
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, service.ErrUncategorized.Error())
}
