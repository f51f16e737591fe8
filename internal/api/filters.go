package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

func registerFilterRoutes() {
	for _, facet := range catalog.Facets {
		plural := pluralOf(facet)
		webserver.PubGET("/filters/"+plural, availableValues(facet))
		webserver.PubGET("/"+plural, globalValues(facet))
	}
}

func pluralOf(f catalog.Facet) string {
	switch f {
	case catalog.FacetCategory:
		return "categories"
	case catalog.FacetFinish:
		return "finishes"
	}
	return "materials"
}

// availableValues answers with the values of target still reachable under
// the other two facet selections.
func availableValues(target catalog.Facet) echo.HandlerFunc {
	return func(c echo.Context) error {
		others := catalog.Filters{
			Category: c.QueryParam("category"),
			Finish:   c.QueryParam("finish"),
			Material: c.QueryParam("material"),
		}
		values, err := GetAppContext(c).Facets().AvailableValues(c.Request().Context(), target, others)
		if err != nil {
			return webserver.HandleError(c, err, "Failed to query filter values")
		}
		return c.JSON(http.StatusOK, values)
	}
}

func globalValues(target catalog.Facet) echo.HandlerFunc {
	return func(c echo.Context) error {
		values, err := GetAppContext(c).Facets().GlobalValues(c.Request().Context(), target)
		if err != nil {
			return webserver.HandleError(c, err, "Failed to query filter values")
		}
		return c.JSON(http.StatusOK, values)
	}
}
