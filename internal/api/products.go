package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

func registerProductRoutes() {
	webserver.PubGET("/products", listProducts)
	webserver.PubGET("/products/:id", getProduct)
}

// listProducts godoc
// @Summary  List products
// @Tags     catalog
// @Param    search    query string false "free text search, overrides the facet filters"
// @Param    category  query string false "exact category, 'all' for any"
// @Param    finish    query string false "exact finish, 'all' for any"
// @Param    material  query string false "exact material, 'all' for any"
// @Param    sortBy    query string false "name, code, category or newest"
// @Param    page      query int    false "1-based page"
// @Param    limit     query int    false "page size, at most 500"
// @Success  200 {object} catalog.ListResult
// @Router   /api/products [get]
func listProducts(c echo.Context) error {
	req := catalog.ListRequest{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Finish:   c.QueryParam("finish"),
		Material: c.QueryParam("material"),
		SortBy:   c.QueryParam("sortBy"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	}
	result, err := GetAppContext(c).Listing().List(c.Request().Context(), req)
	if err != nil {
		return webserver.HandleError(c, err, "Failed to query products")
	}
	return c.JSON(http.StatusOK, result)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := GetAppContext(c).Products().Get(c.Request().Context(), id)
	if err != nil {
		return webserver.HandleError(c, err, "Product not found")
	}
	return c.JSON(http.StatusOK, p)
}
