package adminapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"github.com/vfstudio/vfcatalog/internal/feedback"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

type approvePayload struct {
	Approved *bool `json:"approved" validate:"required"`
}

type publishPayload struct {
	Published *bool `json:"published" validate:"required"`
}

type notePayload struct {
	Note string `json:"note" validate:"max=2000"`
}

func registerFeedbackRoutes() {
	webserver.ApiGET("/feedback", listFeedback)
	webserver.ApiGET("/feedback/stats", feedbackStats)
	webserver.ApiGET("/feedback/:id", getFeedback)
	webserver.ApiPUT("/feedback/:id/approve", approveFeedback)
	webserver.ApiPUT("/feedback/:id/publish", publishFeedback)
	webserver.ApiPUT("/feedback/:id/note", noteFeedback)
	webserver.ApiDELETE("/feedback/:id", deleteFeedback)
}

// optionalBool reads a tri-state query flag: absent means unconstrained.
func optionalBool(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func listFeedback(c echo.Context) error {
	page, pageSize := parsePagination(c)
	var (
		filter feedback.Filter
		err    error
	)
	if filter.Approved, err = optionalBool(c, "approved"); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "approved must be a boolean", nil)
	}
	if filter.Published, err = optionalBool(c, "published"); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "published must be a boolean", nil)
	}
	if v := c.QueryParam("productId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
		}
		filter.ProductID = &id
	}
	rows, total, err := GetAppContext(c).Feedback().List(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return handleError(c, err, "Failed to query feedback")
	}
	return paged(c, rows, total, page, pageSize)
}

func getFeedback(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid feedback ID", nil)
	}
	fb, err := GetAppContext(c).Feedback().Get(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err, "Feedback not found")
	}
	return ok(c, fb)
}

func approveFeedback(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid feedback ID", nil)
	}
	var payload approvePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleError(c, err, "approved is required")
	}
	fb, err := GetAppContext(c).Feedback().Approve(c.Request().Context(), id, *payload.Approved)
	if err != nil {
		return handleError(c, err, "Failed to update feedback")
	}
	logOperation(c, "feedback_approve", fmt.Sprintf("feedback %d approved=%t", id, *payload.Approved))
	return ok(c, fb)
}

func publishFeedback(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid feedback ID", nil)
	}
	var payload publishPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleError(c, err, "published is required")
	}
	fb, err := GetAppContext(c).Feedback().Publish(c.Request().Context(), id, *payload.Published)
	if err != nil {
		return handleError(c, err, "Failed to update feedback")
	}
	logOperation(c, "feedback_publish", fmt.Sprintf("feedback %d published=%t", id, *payload.Published))
	return ok(c, fb)
}

func noteFeedback(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid feedback ID", nil)
	}
	var payload notePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse note", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleError(c, err, "Invalid note")
	}
	fb, err := GetAppContext(c).Feedback().SetNote(c.Request().Context(), id, payload.Note)
	if err != nil {
		return handleError(c, err, "Failed to update feedback")
	}
	return ok(c, fb)
}

func deleteFeedback(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid feedback ID", nil)
	}
	if err := GetAppContext(c).Feedback().Delete(c.Request().Context(), id); err != nil {
		return handleError(c, err, "Failed to delete feedback")
	}
	logOperation(c, "feedback_delete", fmt.Sprintf("deleted feedback %d", id))
	return ok(c, map[string]interface{}{"id": id})
}

func feedbackStats(c echo.Context) error {
	stats, err := GetAppContext(c).Feedback().Stats(c.Request().Context())
	if err != nil {
		return handleError(c, err, "Failed to compute rating stats")
	}
	return ok(c, stats)
}
