package adminapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"github.com/vfstudio/vfcatalog/internal/account"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

func registerUserRoutes() {
	webserver.ApiGET("/users", listUsers)
	webserver.ApiGET("/users/:id", getUser)
	webserver.ApiPATCH("/users/:id", updateUser)
	webserver.ApiPUT("/users/:id", updateUser)
	webserver.ApiDELETE("/users/:id", deleteUser)
}

// listUsers searches name, number and city. admin=true lists administrators only.
func listUsers(c echo.Context) error {
	page, pageSize := parsePagination(c)
	q := strings.TrimSpace(c.QueryParam("q"))
	adminOnly := cast.ToBool(c.QueryParam("admin"))

	users, total, err := GetAppContext(c).Accounts().List(c.Request().Context(), q, adminOnly, page, pageSize)
	if err != nil {
		return handleError(c, err, "Failed to query users")
	}
	return paged(c, users, total, page, pageSize)
}

func getUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	user, err := GetAppContext(c).Accounts().Get(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err, "User not found")
	}
	return ok(c, user)
}

// updateUser accepts name, city and is_admin. Any other key is rejected.
func updateUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var patch account.Patch
	if err := decodePatch(c, &patch); err != nil {
		return handleError(c, err, "Invalid user update")
	}
	user, err := GetAppContext(c).Accounts().Update(c.Request().Context(), webserver.CurrentUser(c), id, patch)
	if err != nil {
		return handleError(c, err, "Failed to update user")
	}
	logOperation(c, "user_update", fmt.Sprintf("updated user %s (%d)", user.Whatsapp, user.ID))
	return ok(c, user)
}

func deleteUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	if err := GetAppContext(c).Accounts().Delete(c.Request().Context(), webserver.CurrentUser(c), id); err != nil {
		return handleError(c, err, "Failed to delete user")
	}
	logOperation(c, "user_delete", fmt.Sprintf("deleted user %d", id))
	return ok(c, map[string]interface{}{"id": id})
}
