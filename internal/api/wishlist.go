package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

type wishlistPayload struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

func registerWishlistRoutes() {
	webserver.PubGET("/wishlist", listWishlist, webserver.RequireUser)
	webserver.PubPOST("/wishlist", addToWishlist, webserver.RequireUser)
	webserver.PubGET("/wishlist/:productId", checkWishlist, webserver.RequireUser)
	webserver.PubDELETE("/wishlist/:productId", removeFromWishlist, webserver.RequireUser)
}

func listWishlist(c echo.Context) error {
	user := webserver.CurrentUser(c)
	entries, err := GetAppContext(c).Wishlist().ListForUser(c.Request().Context(), user.ID)
	if err != nil {
		return webserver.HandleError(c, err, "Failed to query wishlist")
	}
	return c.JSON(http.StatusOK, entries)
}

func addToWishlist(c echo.Context) error {
	var payload wishlistPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.HandleError(c, err, "Invalid request")
	}
	user := webserver.CurrentUser(c)
	item, err := GetAppContext(c).Wishlist().Add(c.Request().Context(), user.ID, payload.ProductID)
	if err != nil {
		return webserver.HandleError(c, err, "Unable to add product to wishlist")
	}
	return c.JSON(http.StatusCreated, item)
}

func checkWishlist(c echo.Context) error {
	id, err := parseIDParam(c, "productId")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	in, err := GetAppContext(c).Wishlist().IsMember(c.Request().Context(), webserver.CurrentUser(c).ID, id)
	if err != nil {
		return webserver.HandleError(c, err, "Failed to query wishlist")
	}
	return c.JSON(http.StatusOK, map[string]bool{"inWishlist": in})
}

// removeFromWishlist is idempotent; success reports whether a row was removed.
func removeFromWishlist(c echo.Context) error {
	id, err := parseIDParam(c, "productId")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	removed, err := GetAppContext(c).Wishlist().Remove(c.Request().Context(), webserver.CurrentUser(c).ID, id)
	if err != nil {
		return webserver.HandleError(c, err, "Failed to update wishlist")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": removed})
}
