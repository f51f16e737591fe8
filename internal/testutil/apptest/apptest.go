// Package apptest builds a wired application and web server for handler tests.
package apptest

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
	"github.com/vfstudio/vfcatalog/config"
	"github.com/vfstudio/vfcatalog/internal/account"
	"github.com/vfstudio/vfcatalog/internal/app"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/testutil"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

const (
	Secret       = "test-secret"
	AdminNumber  = "+919876510001"
	AdminPass    = "s3cret-pass"
	ShopperPhone = "+919876510002"
)

type Env struct {
	App    *app.Application
	Server *webserver.WebServer
}

// New wires an application over a private sqlite database. With memory set,
// products and wishlists use the in-process stores.
func New(t *testing.T, memory bool) *Env {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = t.TempDir()
	cfg.Logger.FileEnable = false
	cfg.Web.Secret = Secret
	cfg.Database.Type = "sqlite"
	if memory {
		cfg.Database.Type = "memory"
	}
	a := app.NewApplication(cfg)
	a.OverrideDB(testutil.NewTestDB(t))
	a.InitServices()
	return &Env{App: a, Server: webserver.NewWebServer(a)}
}

// Do sends a request through the full middleware chain. A non-empty token
// is sent as a bearer credential.
func (e *Env) Do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, jsoniter.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.Server.Echo().ServeHTTP(rec, req)
	return rec
}

// Decode unmarshals a recorded JSON body.
func Decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// Token returns a bearer token for the user.
func (e *Env) Token(t *testing.T, user *domain.User) string {
	t.Helper()
	token, _, err := webserver.IssueToken(Secret, user, e.App.Config().TokenTTL())
	require.NoError(t, err)
	return token
}

// Shopper registers a regular user.
func (e *Env) Shopper(t *testing.T, number, name string) *domain.User {
	t.Helper()
	user, err := e.App.Accounts().Login(context.Background(), account.LoginRequest{Whatsapp: number, Name: name, City: "Jaipur"})
	require.NoError(t, err)
	return user
}

// Admin creates the primary administrator with a password set.
func (e *Env) Admin(t *testing.T) *domain.User {
	t.Helper()
	ctx := context.Background()
	_, err := e.App.Accounts().EnsurePrimaryAdmin(ctx, AdminNumber, "Owner")
	require.NoError(t, err)
	user, err := e.App.Accounts().Login(ctx, account.LoginRequest{Whatsapp: AdminNumber, Password: AdminPass})
	require.NoError(t, err)
	require.True(t, user.IsAdmin)
	return user
}

// StatusIs fails the test with the body when the status differs.
func StatusIs(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}
