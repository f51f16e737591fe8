package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/vfstudio/vfcatalog/internal/app"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

func registerJobRoutes() {
	webserver.ApiGET("/jobs", ListJobs)
	webserver.ApiPOST("/jobs/:name/run", TriggerJob)
}

// ListJobs lists the background jobs
// @Summary list background jobs
// @Tags Jobs
// @Success 200 {object} []app.JobInfo
// @Router /api/admin/jobs [get]
func ListJobs(c echo.Context) error {
	return ok(c, GetAppContext(c).Jobs())
}

// TriggerJob runs a job immediately
// @Summary run a background job now
// @Tags Jobs
// @Param name path string true "Job name"
// @Router /api/admin/jobs/{name}/run [post]
func TriggerJob(c echo.Context) error {
	name := c.Param("name")
	if err := GetAppContext(c).RunJob(name); err != nil {
		if errors.Is(err, app.ErrUnknownJob) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Job not found", name)
		}
		return fail(c, http.StatusInternalServerError, "RUN_FAILED", "Failed to run job", err.Error())
	}
	logOperation(c, "run_job", name)
	return c.NoContent(http.StatusNoContent)
}
