package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/feedback"
	"github.com/vfstudio/vfcatalog/internal/webserver"
	"github.com/vfstudio/vfcatalog/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

type dashboard struct {
	Products      map[string]int64      `json:"products"`
	Users         int64                 `json:"users"`
	Admins        int64                 `json:"admins"`
	WishlistItems int64                 `json:"wishlist_items"`
	Facets        map[catalog.Facet]int `json:"facets"`
	Ratings       *feedback.RatingStats `json:"ratings"`
	Metrics       []metrics.Point       `json:"metrics"`
}

func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard", getDashboard)
	webserver.ApiGET("/metrics/:name", getMetricSeries)
}

// getDashboard gathers the overview counters concurrently.
func getDashboard(c echo.Context) error {
	appCtx := GetAppContext(c)
	statuses := []string{domain.ProductActive, domain.ProductInactive, domain.ProductDraft}
	counts := make([]int64, len(statuses))
	var out dashboard

	g, ctx := errgroup.WithContext(c.Request().Context())
	for i, status := range statuses {
		i, status := i, status
		g.Go(func() error {
			n, err := appCtx.Products().CountMatching(ctx, catalog.Predicate{Status: status})
			counts[i] = n
			return err
		})
	}
	g.Go(func() (err error) {
		out.Users, err = appCtx.Accounts().Count(ctx, false)
		return err
	})
	g.Go(func() (err error) {
		out.Admins, err = appCtx.Accounts().Count(ctx, true)
		return err
	})
	g.Go(func() (err error) {
		out.WishlistItems, err = appCtx.Wishlist().Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.Facets, err = appCtx.Facets().Cardinalities(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.Ratings, err = appCtx.Feedback().Stats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return handleError(c, err, "Failed to load dashboard")
	}

	out.Products = make(map[string]int64, len(statuses)+1)
	for i, status := range statuses {
		out.Products[status] = counts[i]
		out.Products["total"] += counts[i]
	}
	out.Metrics = metrics.Snapshot()
	return ok(c, out)
}

// getMetricSeries returns the stored points of one series, by default for
// the last 24 hours (?since=90m).
func getMetricSeries(c echo.Context) error {
	window := 24 * time.Hour
	if v := c.QueryParam("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "since must be a positive duration", v)
		}
		window = d
	}
	points := metrics.Series(c.Param("name"), time.Now().Add(-window))
	if points == nil {
		points = []metrics.Point{}
	}
	return ok(c, points)
}
