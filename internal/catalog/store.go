package catalog

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/vfstudio/vfcatalog/internal/domain"
)

// TopicProductDeleted is published with the product id after a delete.
const TopicProductDeleted = "product:deleted"

// Store is the product repository. Implementations enforce code uniqueness
// and own id assignment. A limit <= 0 means no limit.
type Store interface {
	FindPage(ctx context.Context, pred Predicate, sort SortKey, limit, offset int) ([]domain.Product, error)
	CountMatching(ctx context.Context, pred Predicate) (int64, error)
	DistinctValues(ctx context.Context, facet Facet, pred Predicate) ([]string, error)

	Get(ctx context.Context, id int64) (*domain.Product, error)
	GetByCode(ctx context.Context, code string) (*domain.Product, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error)

	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	// BulkCreate inserts every product or none of them.
	BulkCreate(ctx context.Context, products []*domain.Product) error
}

// Publisher is the subset of an event bus the stores need.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

// Prepare trims and validates a product before it is written.
func Prepare(p *domain.Product) error {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Finish = strings.TrimSpace(p.Finish)
	p.Material = strings.TrimSpace(p.Material)
	p.Image = strings.TrimSpace(p.Image)
	p.Status = strings.ToLower(strings.TrimSpace(p.Status))

	if p.Code == "" {
		return invalid("code", "required")
	}
	if p.Name == "" {
		return invalid("name", "required")
	}
	if p.Status == "" {
		p.Status = domain.ProductActive
	}
	if !domain.ValidStatus(p.Status) {
		return invalid("status", "must be one of active, inactive, draft")
	}
	for field, v := range map[string]float64{"length": p.Length, "breadth": p.Breadth, "height": p.Height} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid(field, "must be a positive number")
		}
	}
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	p.Images = images
	p.SearchKey = SearchKey(p)
	return nil
}

func stamp(p *domain.Product, now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

func clone(p *domain.Product) domain.Product {
	c := *p
	c.Images = append([]string{}, p.Images...)
	return c
}
