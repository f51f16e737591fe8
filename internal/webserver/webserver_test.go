package webserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfstudio/vfcatalog/internal/account"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/testutil/apptest"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

var (
	registerOnce sync.Once
	touches      atomic.Int64
)

func newEnv(t *testing.T) *apptest.Env {
	registerOnce.Do(func() {
		webserver.ApiGET("/whoami", func(c echo.Context) error {
			return webserver.OK(c, webserver.CurrentUser(c))
		})
		webserver.PubGET("/test/me", func(c echo.Context) error {
			return c.JSON(http.StatusOK, webserver.CurrentUser(c))
		}, webserver.RequireUser)
		webserver.PubPOST("/test/touch", func(c echo.Context) error {
			touches.Add(1)
			return c.JSON(http.StatusOK, map[string]bool{"touched": true})
		}, webserver.RequireUser)
		webserver.PubPOST("/test/signin/:id", func(c echo.Context) error {
			id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
			user, err := webserver.GetAppContext(c).Accounts().Get(c.Request().Context(), id)
			if err != nil {
				return webserver.HandleError(c, err, "no such user")
			}
			if err := webserver.SignIn(c, user); err != nil {
				return err
			}
			return c.NoContent(http.StatusNoContent)
		})
	})
	return apptest.New(t, false)
}

func TestTokenRoundTrip(t *testing.T) {
	user := &domain.User{ID: 42, IsAdmin: true}
	raw, expires, err := webserver.IssueToken("k1", user, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := webserver.ParseToken("k1", raw)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, claims.Admin)

	_, err = webserver.ParseToken("other", raw)
	assert.Error(t, err)

	expired, _, err := webserver.IssueToken("k1", user, -time.Minute)
	require.NoError(t, err)
	_, err = webserver.ParseToken("k1", expired)
	assert.Error(t, err)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newEnv(t)
	admin := env.Admin(t)
	shopper := env.Shopper(t, apptest.ShopperPhone, "Asha")

	rec := env.Do(t, http.MethodGet, "/api/admin/whoami", nil, "")
	apptest.StatusIs(t, rec, http.StatusUnauthorized)

	rec = env.Do(t, http.MethodGet, "/api/admin/whoami", nil, env.Token(t, shopper))
	apptest.StatusIs(t, rec, http.StatusForbidden)
	var body webserver.ErrorBody
	apptest.Decode(t, rec, &body)
	assert.Equal(t, "FORBIDDEN", body.Code)

	rec = env.Do(t, http.MethodGet, "/api/admin/whoami", nil, "not-a-token")
	apptest.StatusIs(t, rec, http.StatusUnauthorized)
	apptest.Decode(t, rec, &body)
	assert.Equal(t, "INVALID_TOKEN", body.Code)

	rec = env.Do(t, http.MethodGet, "/api/admin/whoami", nil, env.Token(t, admin))
	apptest.StatusIs(t, rec, http.StatusOK)
	var ok struct {
		Data domain.User `json:"data"`
	}
	apptest.Decode(t, rec, &ok)
	assert.Equal(t, admin.ID, ok.Data.ID)
}

func TestRevokedAdminTokenIsForbidden(t *testing.T) {
	env := newEnv(t)
	primary := env.Admin(t)
	other := env.Shopper(t, "+919876510003", "Ravi")
	yes := true
	_, err := env.App.Accounts().Update(context.Background(), primary, other.ID, account.Patch{IsAdmin: &yes})
	require.NoError(t, err)
	other.IsAdmin = true
	token := env.Token(t, other)

	no := false
	_, err = env.App.Accounts().Update(context.Background(), primary, other.ID, account.Patch{IsAdmin: &no})
	require.NoError(t, err)

	rec := env.Do(t, http.MethodGet, "/api/admin/whoami", nil, token)
	apptest.StatusIs(t, rec, http.StatusForbidden)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	env := newEnv(t)
	shopper := env.Shopper(t, apptest.ShopperPhone, "Asha")

	rec := env.Do(t, http.MethodGet, "/api/test/me", nil, "")
	apptest.StatusIs(t, rec, http.StatusUnauthorized)

	rec = env.Do(t, http.MethodPost, "/api/test/signin/"+strconv.FormatInt(shopper.ID, 10), nil, "")
	apptest.StatusIs(t, rec, http.StatusNoContent)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/test/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec = httptest.NewRecorder()
	env.Server.Echo().ServeHTTP(rec, req)
	apptest.StatusIs(t, rec, http.StatusOK)
	var me domain.User
	apptest.Decode(t, rec, &me)
	assert.Equal(t, shopper.ID, me.ID)
}

func TestInvalidTokenStopsSessionRequest(t *testing.T) {
	env := newEnv(t)
	shopper := env.Shopper(t, apptest.ShopperPhone, "Asha")

	rec := env.Do(t, http.MethodPost, "/api/test/signin/"+strconv.FormatInt(shopper.ID, 10), nil, "")
	apptest.StatusIs(t, rec, http.StatusNoContent)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	before := touches.Load()
	req := httptest.NewRequest(http.MethodPost, "/api/test/touch", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec = httptest.NewRecorder()
	env.Server.Echo().ServeHTTP(rec, req)

	apptest.StatusIs(t, rec, http.StatusUnauthorized)
	assert.Equal(t, before, touches.Load(), "handler must not run")
	assert.NotContains(t, rec.Body.String(), "touched")
	assert.Equal(t, 1, strings.Count(rec.Body.String(), `"code"`))
	var body webserver.ErrorBody
	apptest.Decode(t, rec, &body)
	assert.Equal(t, "INVALID_TOKEN", body.Code)

	// the same cookie without a bearer header still works
	req = httptest.NewRequest(http.MethodPost, "/api/test/touch", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec = httptest.NewRecorder()
	env.Server.Echo().ServeHTTP(rec, req)
	apptest.StatusIs(t, rec, http.StatusOK)
	assert.Equal(t, before+1, touches.Load())
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	env := newEnv(t)
	rec := env.Do(t, http.MethodGet, "/api/nope", nil, "")
	apptest.StatusIs(t, rec, http.StatusNotFound)
	var body webserver.ErrorBody
	apptest.Decode(t, rec, &body)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestHandleErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&catalog.ValidationError{Field: "code", Reason: "required"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{errors.Wrap(catalog.ErrNotFound, "product 9"), http.StatusNotFound, "NOT_FOUND"},
		{errors.Wrap(catalog.ErrConflict, "code A1"), http.StatusBadRequest, "CONFLICT"},
		{account.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{errors.Wrap(webserver.ErrInvalidToken, "signature"), http.StatusUnauthorized, "INVALID_TOKEN"},
		{account.ErrPasswordRequired, http.StatusUnauthorized, "PASSWORD_REQUIRED"},
		{account.ErrBadCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{&catalog.StorageError{Op: "find", Err: errors.New("disk")}, http.StatusInternalServerError, "DATABASE_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, webserver.HandleError(c, tc.err, "failed"))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Contains(t, rec.Body.String(), `"code":"`+tc.code+`"`)
	}
}
