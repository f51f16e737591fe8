package transfer

import (
	"context"
	"strconv"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"go.uber.org/zap"
)

// RowError reports a skipped row. Line counts the header as line 1.
type RowError struct {
	Line  int    `json:"line"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type Report struct {
	Total     int        `json:"total"`
	Created   int        `json:"created"`
	Invalid   []RowError `json:"invalid"`
	Conflicts []RowError `json:"conflicts"`
}

type Importer struct {
	store   catalog.Store
	workers int
}

func NewImporter(store catalog.Store, workers int) *Importer {
	if workers <= 0 {
		workers = 8
	}
	return &Importer{store: store, workers: workers}
}

type parsed struct {
	product *domain.Product
	err     error
}

// Import validates rows on a worker pool, skips invalid rows and codes that
// already exist, and writes the rest in one batch.
func (im *Importer) Import(ctx context.Context, rows []Row) (*Report, error) {
	report := &Report{Invalid: []RowError{}, Conflicts: []RowError{}}
	results := make([]parsed, len(rows))

	pool, err := ants.NewPool(im.workers)
	if err != nil {
		return nil, errors.Wrap(err, "import pool")
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range rows {
		if rows[i].blank() {
			continue
		}
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			p, err := rows[i].ToProduct()
			results[i] = parsed{product: p, err: err}
		}); err != nil {
			wg.Done()
			results[i] = parsed{err: err}
		}
	}
	wg.Wait()

	seen := make(map[string]int)
	batch := make([]*domain.Product, 0, len(rows))
	for i, res := range results {
		line := i + 2
		if rows[i].blank() {
			continue
		}
		report.Total++
		if res.err != nil {
			report.Invalid = append(report.Invalid, RowError{Line: line, Code: rows[i].Code, Error: res.err.Error()})
			continue
		}
		code := res.product.Code
		if first, dup := seen[code]; dup {
			report.Conflicts = append(report.Conflicts, RowError{Line: line, Code: code, Error: "code repeats line " + strconv.Itoa(first)})
			continue
		}
		seen[code] = line
		if _, err := im.store.GetByCode(ctx, code); err == nil {
			report.Conflicts = append(report.Conflicts, RowError{Line: line, Code: code, Error: "code already exists"})
			continue
		} else if !errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		batch = append(batch, res.product)
	}

	if err := im.store.BulkCreate(ctx, batch); err != nil {
		return nil, err
	}
	report.Created = len(batch)
	zap.L().Info("product import finished",
		zap.Int("total", report.Total),
		zap.Int("created", report.Created),
		zap.Int("invalid", len(report.Invalid)),
		zap.Int("conflicts", len(report.Conflicts)))
	return report, nil
}

// Export returns every product matching pred ordered by code.
func Export(ctx context.Context, store catalog.Store, pred catalog.Predicate) ([]Row, error) {
	products, err := store.FindPage(ctx, pred, catalog.SortCode, 0, 0)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(products))
	for _, p := range products {
		rows = append(rows, FromProduct(p))
	}
	return rows, nil
}
