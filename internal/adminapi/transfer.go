package adminapi

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/catalog/transfer"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/webserver"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func registerTransferRoutes() {
	webserver.ApiPOST("/products/import", importProducts)
	webserver.ApiGET("/products/export", exportProducts)
}

// importProducts reads a CSV or XLSX upload (multipart field "file") and
// reports created, invalid and conflicting rows.
func importProducts(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing upload field 'file'", err.Error())
	}
	src, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read upload", err.Error())
	}
	defer src.Close()

	var rows []transfer.Row
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".csv":
		rows, err = transfer.ReadCSV(src)
	case ".xlsx":
		rows, err = transfer.ReadXLSX(src)
	default:
		return fail(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", "Only .csv and .xlsx files can be imported", fh.Filename)
	}
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_FILE", "Unable to parse upload", err.Error())
	}

	report, err := GetAppContext(c).Importer().Import(c.Request().Context(), rows)
	if err != nil {
		return handleError(c, err, "Import failed")
	}
	logOperation(c, "product_import", fmt.Sprintf("imported %s: %d created, %d invalid, %d conflicts",
		fh.Filename, report.Created, len(report.Invalid), len(report.Conflicts)))
	return ok(c, report)
}

// exportProducts streams the catalog (optionally one status) as csv or xlsx.
func exportProducts(c echo.Context) error {
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		return fail(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", "format must be csv or xlsx", format)
	}
	status := strings.ToLower(c.QueryParam("status"))
	if status != "" && !domain.ValidStatus(status) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown product status", status)
	}

	rows, err := transfer.Export(c.Request().Context(), GetAppContext(c).Products(), catalog.Predicate{Status: status})
	if err != nil {
		return handleError(c, err, "Export failed")
	}

	filename := fmt.Sprintf("products-%s.%s", time.Now().Format("20060102-150405"), format)
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	if format == "xlsx" {
		resp.Header().Set(echo.HeaderContentType, xlsxContentType)
	} else {
		resp.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	}
	resp.WriteHeader(http.StatusOK)

	if format == "xlsx" {
		err = transfer.WriteXLSX(resp, rows)
	} else {
		err = transfer.WriteCSV(resp, rows)
	}
	if err != nil {
		// headers are already sent
		zap.L().Error("product export failed", zap.String("format", format), zap.Error(err))
		return nil
	}
	logOperation(c, "product_export", fmt.Sprintf("exported %d products as %s", len(rows), format))
	return nil
}
