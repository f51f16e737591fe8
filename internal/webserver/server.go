// Package webserver hosts the echo server, its middleware chain and the
// route registry the api packages fill in.
package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
	"github.com/labstack/gommon/log"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/vfstudio/vfcatalog/internal/app"
	"github.com/vfstudio/vfcatalog/pkg/metrics"
	"go.uber.org/zap"
)

const (
	appContextKey      = "appctx"
	defaultUploadLimit = "16M"
)

type WebServer struct {
	root   *echo.Echo
	appCtx app.AppContext
}

func NewWebServer(appCtx app.AppContext) *WebServer {
	cfg := appCtx.Config()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.OFF)
	e.JSONSerializer = jsonSerializer{}
	e.Validator = newPayloadValidator()
	e.HTTPErrorHandler = httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(uploadLimit(cfg.Web.UploadLimit)))
	e.Use(requestLogger)
	e.Use(appContextMiddleware(appCtx))
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.Web.Secret))))
	e.Use(jwtMiddleware(cfg.Web.Secret))
	e.Use(resolveUser(cfg.Web.SessionName))

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	mountRoutes(e)

	return &WebServer{root: e, appCtx: appCtx}
}

func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// Start blocks serving http until Shutdown is called.
func (s *WebServer) Start() error {
	cfg := s.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.S().Infof("Prepare to start web server at %s", addr)
	err := s.root.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

// uploadLimit normalises the configured body limit, falling back to the default.
func uploadLimit(v string) string {
	n, err := bytes.Parse(v)
	if err != nil || n <= 0 {
		zap.S().Warnf("invalid upload limit %q, using %s", v, defaultUploadLimit)
		return defaultUploadLimit
	}
	zap.S().Debugf("request body limit %s", bytes.Format(n))
	return v
}

func appContextMiddleware(appCtx app.AppContext) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, appCtx)
			return next(c)
		}
	}
}

// GetAppContext returns the application bound to the request.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(appContextKey).(app.AppContext)
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		status := c.Response().Status
		metrics.Incr("http_requests_total", 1)
		if status >= http.StatusInternalServerError {
			metrics.Incr("http_requests_5xx", 1)
		}
		zap.L().Debug("http request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote", c.RealIP()),
		)
		return nil
	}
}
