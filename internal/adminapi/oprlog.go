package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

func registerOprLogRoutes() {
	webserver.ApiGET("/oprlogs", listOprLogs)
}

func listOprLogs(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.SysOprLog{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if strings.EqualFold(db.Name(), "postgres") {
			db = db.Where("opr_name ILIKE ? OR opt_action ILIKE ? OR opt_desc ILIKE ?", "%"+q+"%", "%"+q+"%", "%"+q+"%")
		} else {
			like := "%" + strings.ToLower(q) + "%"
			db = db.Where("LOWER(opr_name) LIKE ? OR LOWER(opt_action) LIKE ? OR LOWER(opt_desc) LIKE ?", like, like, like)
		}
	}
	if action := strings.TrimSpace(c.QueryParam("action")); action != "" {
		db = db.Where("opt_action = ?", action)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operation logs", err.Error())
	}
	rows := make([]domain.SysOprLog, 0)
	offset, ok := catalog.PageOffset(page, pageSize)
	if !ok {
		return paged(c, rows, total, page, pageSize)
	}
	if err := db.Order("opt_time DESC").Offset(offset).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operation logs", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}
