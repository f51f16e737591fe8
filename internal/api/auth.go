package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/account"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/webserver"
	"go.uber.org/zap"
)

type loginPayload account.LoginRequest

func (p *loginPayload) Validate() error {
	if strings.TrimSpace(p.Whatsapp) == "" {
		return &catalog.ValidationError{Field: "whatsapp", Reason: "required"}
	}
	return nil
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func registerAuthRoutes() {
	webserver.PubPOST("/auth/login", login)
	webserver.PubPOST("/auth/logout", logout)
	webserver.PubGET("/auth/me", me, webserver.RequireUser)
	webserver.PubPOST("/auth/token", issueToken, webserver.RequireUser)
}

// login signs the user in by WhatsApp number, registering unknown numbers.
func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.HandleError(c, err, "Invalid login")
	}
	user, err := GetAppContext(c).Accounts().Login(c.Request().Context(), account.LoginRequest(payload))
	if err != nil {
		return webserver.HandleError(c, err, "Login failed")
	}
	if err := webserver.SignIn(c, user); err != nil {
		zap.L().Error("session save failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return webserver.Fail(c, http.StatusInternalServerError, "SESSION_ERROR", "Unable to start session", nil)
	}
	return c.JSON(http.StatusOK, user)
}

func logout(c echo.Context) error {
	if err := webserver.SignOut(c); err != nil {
		zap.L().Warn("session clear failed", zap.Error(err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func me(c echo.Context) error {
	return c.JSON(http.StatusOK, webserver.CurrentUser(c))
}

// issueToken gives administrators a bearer token for scripted admin api use.
func issueToken(c echo.Context) error {
	user := webserver.CurrentUser(c)
	if !user.IsAdmin {
		return webserver.Fail(c, http.StatusForbidden, "FORBIDDEN", "Administrator access required", nil)
	}
	cfg := GetAppContext(c).Config()
	token, expires, err := webserver.IssueToken(cfg.Web.Secret, user, cfg.TokenTTL())
	if err != nil {
		return webserver.HandleError(c, err, "Unable to issue token")
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires.Unix()})
}
