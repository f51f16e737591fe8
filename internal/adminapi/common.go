package adminapi

import (
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/vfstudio/vfcatalog/internal/app"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/webserver"
	"gorm.io/gorm"
)

var initOnce sync.Once

// Init registers every admin route. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		registerProductRoutes()
		registerTransferRoutes()
		registerUserRoutes()
		registerFeedbackRoutes()
		registerDashboardRoutes()
		registerOprLogRoutes()
		registerJobRoutes()
	})
}

func GetAppContext(c echo.Context) app.AppContext {
	return webserver.GetAppContext(c)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB().WithContext(c.Request().Context())
}

func ok(c echo.Context, data interface{}) error {
	return webserver.OK(c, data)
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return webserver.Fail(c, status, code, message, detail)
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return webserver.Paged(c, data, total, page, pageSize)
}

func handleError(c echo.Context, err error, message string) error {
	return webserver.HandleError(c, err, message)
}

// parsePagination reads page and pageSize (or perPage), defaulting to 1 and 20.
func parsePagination(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size := c.QueryParam("pageSize")
	if size == "" {
		size = c.QueryParam("perPage")
	}
	pageSize, _ = strconv.Atoi(size)
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > catalog.MaxLimit {
		pageSize = catalog.MaxLimit
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// decodePatch reads a JSON object and decodes it onto out. Unknown keys are
// rejected so read-only fields cannot be smuggled in.
func decodePatch(c echo.Context, out interface{}) error {
	var raw map[string]interface{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &raw); err != nil {
		return &catalog.ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return &catalog.ValidationError{Field: "body", Reason: strings.ReplaceAll(err.Error(), "\n", " ")}
	}
	return nil
}

// logOperation records an admin mutation in the operation log.
func logOperation(c echo.Context, action, desc string) {
	operator := "unknown"
	if user := webserver.CurrentUser(c); user != nil {
		operator = user.Whatsapp
	}
	GetAppContext(c).RecordOperation(c.Request().Context(), operator, c.RealIP(), action, desc)
}
