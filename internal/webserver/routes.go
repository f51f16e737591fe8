package webserver

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
	mws     []echo.MiddlewareFunc
}

var (
	routesMu     sync.Mutex
	publicRoutes []route
	adminRoutes  []route
)

func addRoute(list *[]route, method, path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	routesMu.Lock()
	defer routesMu.Unlock()
	*list = append(*list, route{method: method, path: path, handler: h, mws: m})
}

// Admin routes, mounted below /api/admin behind RequireAdmin.

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(&adminRoutes, http.MethodGet, path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(&adminRoutes, http.MethodPost, path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(&adminRoutes, http.MethodPut, path, h, m...)
}

func ApiPATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(&adminRoutes, http.MethodPatch, path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(&adminRoutes, http.MethodDelete, path, h, m...)
}

// Public routes, mounted below /api. Pass RequireUser for signed-in endpoints.

func PubGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(&publicRoutes, http.MethodGet, path, h, m...)
}

func PubPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(&publicRoutes, http.MethodPost, path, h, m...)
}

func PubDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(&publicRoutes, http.MethodDelete, path, h, m...)
}

func mountRoutes(e *echo.Echo) {
	routesMu.Lock()
	defer routesMu.Unlock()
	api := e.Group("/api")
	for _, r := range publicRoutes {
		api.Add(r.method, r.path, r.handler, r.mws...)
	}
	admin := e.Group("/api/admin", RequireAdmin)
	for _, r := range adminRoutes {
		admin.Add(r.method, r.path, r.handler, r.mws...)
	}
}
