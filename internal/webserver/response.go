package webserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/account"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/whatsapp"
	"go.uber.org/zap"
)

// ErrorBody is the error envelope shared by every endpoint.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"data": data})
}

func Fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, ErrorBody{Code: code, Message: message, Detail: detail})
}

func Paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": data,
		"meta": PageMeta{Total: total, Page: page, PageSize: pageSize, TotalPages: pages},
	})
}

// HandleError renders a service error with the status its kind maps to.
func HandleError(c echo.Context, err error, message string) error {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		return Fail(c, http.StatusBadRequest, "VALIDATION_ERROR", message,
			map[string]string{"field": verr.Field, "reason": verr.Reason})
	case errors.Is(err, catalog.ErrValidation), errors.Is(err, whatsapp.ErrInvalidNumber):
		return Fail(c, http.StatusBadRequest, "VALIDATION_ERROR", message, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		return Fail(c, http.StatusNotFound, "NOT_FOUND", message, nil)
	case errors.Is(err, catalog.ErrConflict):
		return Fail(c, http.StatusBadRequest, "CONFLICT", message, err.Error())
	case errors.Is(err, ErrInvalidToken):
		return Fail(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
	case errors.Is(err, account.ErrPasswordRequired):
		return Fail(c, http.StatusUnauthorized, "PASSWORD_REQUIRED", "Password required", nil)
	case errors.Is(err, account.ErrBadCredentials):
		return Fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", nil)
	case errors.Is(err, account.ErrForbidden):
		return Fail(c, http.StatusForbidden, "FORBIDDEN", message, err.Error())
	case catalog.IsStorageError(err):
		zap.L().Error(message, zap.String("path", c.Path()), zap.Error(err))
		return Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", message, nil)
	default:
		zap.L().Error(message, zap.String("path", c.Path()), zap.Error(err))
		return Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
	}
}

// httpErrorHandler renders errors escaping the handlers (routing, binding,
// body limit, panics) in the same envelope.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		_ = HandleError(c, err, "Internal server error")
		return
	}
	code := "HTTP_ERROR"
	switch he.Code {
	case http.StatusNotFound:
		code = "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		code = "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		code = "PAYLOAD_TOO_LARGE"
	case http.StatusUnauthorized:
		code = "UNAUTHENTICATED"
	case http.StatusBadRequest:
		code = "INVALID_REQUEST"
	}
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok {
		msg = s
	}
	var err2 error
	if c.Request().Method == http.MethodHead {
		err2 = c.NoContent(he.Code)
	} else {
		err2 = Fail(c, he.Code, code, msg, nil)
	}
	if err2 != nil {
		zap.L().Warn("failed to write error response", zap.Error(err2))
	}
}
