package catalog

import (
	"context"
	"math"
	"strings"

	"github.com/vfstudio/vfcatalog/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ListRequest is one listing query as received from a client. Page and
// Limit below 1 fall back to the defaults.
type ListRequest struct {
	Search   string
	Category string
	Finish   string
	Material string
	SortBy   string
	Status   string
	Page     int
	Limit    int
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type ListResult struct {
	Items      []domain.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// ListingService answers list requests in search or filter mode.
type ListingService struct {
	store Store
}

func NewListingService(store Store) *ListingService {
	return &ListingService{store: store}
}

// Predicate resolves the request mode. Search wins over filters.
func (r ListRequest) Predicate() Predicate {
	var pred Predicate
	if q := strings.TrimSpace(r.Search); q != "" {
		pred = SearchPredicate(q)
	} else {
		pred = FilterPredicate(Filters{Category: r.Category, Finish: r.Finish, Material: r.Material})
	}
	pred.Status = strings.ToLower(strings.TrimSpace(r.Status))
	return pred
}

func (r ListRequest) paging() (page, limit int) {
	page, limit = r.Page, r.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// PageOffset returns the row offset of a 1-indexed page. When the offset
// does not fit in an int it returns math.MaxInt and false; such a page lies
// past any result set.
func PageOffset(page, limit int) (int, bool) {
	if page < 1 || limit < 1 {
		return 0, true
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt, false
	}
	return (page - 1) * limit, true
}

// List fetches the page and the total concurrently. The two reads are not
// isolated from each other, so under concurrent writes total may differ
// slightly from what the page shows.
func (s *ListingService) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	pred := req.Predicate()
	key := ParseSort(req.SortBy)
	if pred.IsSearch() {
		key = SortName
	}
	page, limit := req.paging()
	offset, inRange := PageOffset(page, limit)

	var (
		items []domain.Product
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	if inRange {
		g.Go(func() error {
			var err error
			items, err = s.store.FindPage(gctx, pred, key, limit, offset)
			return err
		})
	}
	g.Go(func() error {
		var err error
		total, err = s.store.CountMatching(gctx, pred)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Product{}
	}
	return &ListResult{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}
