package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/comic_reader/internal/db"
	"github.com/Skotchmaster/comic_reader/internal/hash"
	"github.com/Skotchmaster/comic_reader/internal/models"
	"github.com/Skotchmaster/comic_reader/internal/mykafka"
	"github.com/Skotchmaster/comic_reader/internal/repo"
	"github.com/Skotchmaster/comic_reader/internal/service"
	"github.com/Skotchmaster/comic_reader/internal/tokens"
)

func newAuthService(t *testing.T) *service.AuthService {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "mw.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	keys, err := tokens.NewKeys([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)
	svc := service.NewAuthService(
		&repo.GormRepo{DB: gdb},
		tokens.NewService(keys, &repo.GormLedger{DB: gdb}),
		hash.NewBcrypt(bcrypt.MinCost),
		mykafka.NopPublisher{},
		"user_events",
	)
	require.NoError(t, svc.SeedDefaults(context.Background()))
	return svc
}

func login(t *testing.T, svc *service.AuthService, username string) string {
	t.Helper()
	res, err := svc.Login(context.Background(), username, "123456")
	require.NoError(t, err)
	return res.Token
}

func newProtectedEcho(svc *service.AuthService) *echo.Echo {
	e := echo.New()
	g := e.Group("/p", DecodeHook(svc))
	g.GET("/me", func(c echo.Context) error {
		caller, ok := CallerFrom(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		claims, _ := claimsFrom(c)
		return c.JSON(http.StatusOK, map[string]string{
			"username": caller.Username,
			"scope":    caller.Scope,
			"jti":      claims.ID,
		})
	})
	g.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		RequireScope(models.RoleAdmin.Scope()))
	return e
}

func do(e *echo.Echo, path string, mutate func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func TestDecodeHook_BearerAndCookie(t *testing.T) {
	svc := newAuthService(t)
	e := newProtectedEcho(svc)
	token := login(t, svc, "user")

	rec := do(e, "/p/me", bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"user"`)
	assert.Contains(t, rec.Body.String(), `"scope":"SCOPE_USER"`)

	rec = do(e, "/p/me", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: AccessCookie, Value: token})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDecodeHook_Rejects(t *testing.T) {
	svc := newAuthService(t)
	e := newProtectedEcho(svc)

	revoked := login(t, svc, "user")
	require.NoError(t, svc.Logout(context.Background(), revoked))

	cases := []struct {
		name   string
		mutate func(*http.Request)
	}{
		{"missing", nil},
		{"garbage", bearer("garbage")},
		{"revoked", bearer(revoked)},
		{"wrong scheme", func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Basic abc") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, "/p/me", tc.mutate)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireScope(t *testing.T) {
	svc := newAuthService(t)
	e := newProtectedEcho(svc)

	rec := do(e, "/p/admin", bearer(login(t, svc, "user")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, "/p/admin", bearer(login(t, svc, "admin")))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireScope_WithoutDecodeHook(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireScope("SCOPE_ADMIN"))

	rec := do(e, "/x", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
