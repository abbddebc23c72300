package authclient

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
	authhdl "github.com/Skotchmaster/comic_reader/internal/handlers/auth"
	"github.com/Skotchmaster/comic_reader/internal/hash"
	authmw "github.com/Skotchmaster/comic_reader/internal/middleware/auth"
	"github.com/Skotchmaster/comic_reader/internal/mykafka"
	"github.com/Skotchmaster/comic_reader/internal/repo"
	"github.com/Skotchmaster/comic_reader/internal/service"
	"github.com/Skotchmaster/comic_reader/internal/tokens"
	httpserver "github.com/Skotchmaster/comic_reader/internal/transport/http"
)

func startAuthServer(t *testing.T) (*httptest.Server, *service.AuthService) {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "client.db"))
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

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &authhdl.AuthHandler{Svc: svc},
		UserHandler: &authhdl.UserHandler{Svc: svc},
		Decoder:     svc,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestClient_IntrospectAndDecode(t *testing.T) {
	srv, svc := startAuthServer(t)
	ctx := context.Background()
	client := NewClient(srv.URL + "/")

	res, err := svc.Login(ctx, "admin", "123456")
	require.NoError(t, err)

	valid, err := client.Introspect(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, valid)

	claims, err := client.Decode(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "SCOPE_ADMIN", claims.Scope)

	require.NoError(t, svc.Logout(ctx, res.Token))

	valid, err = client.Introspect(ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = client.Decode(ctx, res.Token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestClient_ServerErrors(t *testing.T) {
	srv, _ := startAuthServer(t)
	client := NewClient(srv.URL)

	// empty token is a 400 from the auth service
	_, err := client.Introspect(context.Background(), "")
	require.Error(t, err)

	_, err = client.Decode(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	srv.Close()
	_, err = client.Introspect(context.Background(), "x")
	require.Error(t, err)
}

func TestClient_AsRemoteDecodeHook(t *testing.T) {
	srv, svc := startAuthServer(t)
	client := NewClient(srv.URL)

	catalog := echo.New()
	catalog.GET("/comics/private", func(c echo.Context) error {
		caller, _ := authmw.CallerFrom(c)
		return c.String(http.StatusOK, caller.Username)
	}, authmw.DecodeHook(client))

	res, err := svc.Login(context.Background(), "user", "123456")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/comics/private", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+res.Token)
	rec := httptest.NewRecorder()
	catalog.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/comics/private", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer forged")
	rec = httptest.NewRecorder()
	catalog.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
