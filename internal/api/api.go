// Package api serves the public catalog, wishlist, login and feedback endpoints.
package api

import (
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/app"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

var initOnce sync.Once

// Init registers the public routes. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		registerProductRoutes()
		registerFilterRoutes()
		registerWishlistRoutes()
		registerAuthRoutes()
		registerFeedbackRoutes()
	})
}

func GetAppContext(c echo.Context) app.AppContext {
	return webserver.GetAppContext(c)
}

// queryInt returns the integer query value, or 0 when missing or malformed.
func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
	if err != nil {
		return 0
	}
	return v
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
