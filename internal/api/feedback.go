package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/feedback"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

func registerFeedbackRoutes() {
	webserver.PubGET("/feedback", listPublishedFeedback)
	webserver.PubPOST("/feedback", submitFeedback, webserver.RequireUser)
}

func submitFeedback(c echo.Context) error {
	var req feedback.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse feedback", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return webserver.HandleError(c, err, "Invalid feedback")
	}
	fb, err := GetAppContext(c).Feedback().Submit(c.Request().Context(), webserver.CurrentUser(c), req)
	if err != nil {
		return webserver.HandleError(c, err, "Unable to submit feedback")
	}
	return c.JSON(http.StatusCreated, fb)
}

// listPublishedFeedback lists approved and published feedback, optionally
// for one product.
func listPublishedFeedback(c echo.Context) error {
	var productID *int64
	if v := c.QueryParam("productId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
		}
		productID = &id
	}
	page, pageSize := queryInt(c, "page"), queryInt(c, "pageSize")
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	rows, total, err := GetAppContext(c).Feedback().ListPublished(c.Request().Context(), productID, page, pageSize)
	if err != nil {
		return webserver.HandleError(c, err, "Failed to query feedback")
	}
	return webserver.Paged(c, rows, total, page, pageSize)
}
