package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/pkg/errors"
	"github.com/vfstudio/vfcatalog/internal/domain"
)

// MemoryStore keeps products in a btree ordered by id. Ids come from a
// monotonic counter and are never reused.
type MemoryStore struct {
	mu     sync.RWMutex
	tree   *btree.BTreeG[*domain.Product]
	codes  map[string]int64
	nextID int64
	events Publisher
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func byID(a, b *domain.Product) bool { return a.ID < b.ID }

// NewMemoryStore creates an empty store. events may be nil.
func NewMemoryStore(events Publisher) *MemoryStore {
	return &MemoryStore{
		tree:   btree.NewG[*domain.Product](16, byID),
		codes:  make(map[string]int64),
		events: events,
		now:    time.Now,
	}
}

func (s *MemoryStore) matching(pred Predicate) []*domain.Product {
	var out []*domain.Product
	s.tree.Ascend(func(p *domain.Product) bool {
		if pred.Match(p) {
			out = append(out, p)
		}
		return true
	})
	return out
}

func (s *MemoryStore) FindPage(ctx context.Context, pred Predicate, key SortKey, limit, offset int) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("find", err)
	}
	if pred.IsSearch() {
		key = SortName
	}
	s.mu.RLock()
	rows := s.matching(pred)
	sort.SliceStable(rows, func(i, j int) bool { return key.Less(rows[i], rows[j]) })
	if offset < 0 {
		offset = 0
	}
	if offset > len(rows) {
		offset = len(rows)
	}
	end := len(rows)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	out := make([]domain.Product, 0, end-offset)
	for _, p := range rows[offset:end] {
		out = append(out, clone(p))
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *MemoryStore) CountMatching(ctx context.Context, pred Predicate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storageErr("count", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	s.tree.Ascend(func(p *domain.Product) bool {
		if pred.Match(p) {
			n++
		}
		return true
	})
	return n, nil
}

func (s *MemoryStore) DistinctValues(ctx context.Context, facet Facet, pred Predicate) ([]string, error) {
	if !facet.Valid() {
		return nil, invalid("facet", string(facet))
	}
	if err := ctx.Err(); err != nil {
		return nil, storageErr("distinct", err)
	}
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, p := range s.matching(pred) {
		if v := facet.Value(p); v != "" {
			seen[v] = struct{}{}
		}
	}
	s.mu.RUnlock()
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.tree.Get(&domain.Product{ID: id})
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "product %d", id)
	}
	c := clone(p)
	return &c, nil
}

func (s *MemoryStore) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	s.mu.RLock()
	id, ok := s.codes[code]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "product code %s", code)
	}
	return s.Get(ctx, id)
}

func (s *MemoryStore) GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.tree.Get(&domain.Product{ID: id}); ok {
			out[id] = clone(p)
		}
	}
	return out, nil
}

func (s *MemoryStore) insertLocked(p *domain.Product, now time.Time) {
	s.nextID++
	p.ID = s.nextID
	stamp(p, now)
	c := clone(p)
	s.tree.ReplaceOrInsert(&c)
	s.codes[c.Code] = c.ID
}

func (s *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	if err := Prepare(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.codes[p.Code]; dup {
		return errors.Wrapf(ErrConflict, "product code %s already exists", p.Code)
	}
	s.insertLocked(p, s.now())
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	if err := Prepare(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.tree.Get(&domain.Product{ID: p.ID})
	if !ok {
		return errors.Wrapf(ErrNotFound, "product %d", p.ID)
	}
	if owner, dup := s.codes[p.Code]; dup && owner != p.ID {
		return errors.Wrapf(ErrConflict, "product code %s already exists", p.Code)
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = s.now()
	delete(s.codes, old.Code)
	c := clone(p)
	s.tree.ReplaceOrInsert(&c)
	s.codes[c.Code] = c.ID
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	old, ok := s.tree.Delete(&domain.Product{ID: id})
	if ok {
		delete(s.codes, old.Code)
	}
	s.mu.Unlock()
	if !ok {
		return errors.Wrapf(ErrNotFound, "product %d", id)
	}
	if s.events != nil {
		s.events.Publish(TopicProductDeleted, id)
	}
	return nil
}

func (s *MemoryStore) BulkCreate(ctx context.Context, products []*domain.Product) error {
	batch := make(map[string]struct{}, len(products))
	for _, p := range products {
		if err := Prepare(p); err != nil {
			return errors.Wrapf(err, "product %s", p.Code)
		}
		if _, dup := batch[p.Code]; dup {
			return errors.Wrapf(ErrConflict, "product code %s repeated in batch", p.Code)
		}
		batch[p.Code] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		if _, dup := s.codes[p.Code]; dup {
			return errors.Wrapf(ErrConflict, "product code %s already exists", p.Code)
		}
	}
	now := s.now()
	for _, p := range products {
		s.insertLocked(p, now)
	}
	return nil
}
