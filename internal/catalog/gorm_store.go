package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"gorm.io/gorm"
)

// GormStore is the Store backed by postgres or sqlite through gorm.
type GormStore struct {
	db     *gorm.DB
	events Publisher
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a gorm backed store. events may be nil.
func NewGormStore(db *gorm.DB, events Publisher) *GormStore {
	return &GormStore{db: db, events: events}
}

func (s *GormStore) postgres() bool {
	return strings.EqualFold(s.db.Name(), "postgres")
}

// likeEscaper makes user input match literally inside LIKE patterns.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *GormStore) scope(pred Predicate) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pred.Status != "" {
			db = db.Where("status = ?", pred.Status)
		}
		if pred.IsSearch() {
			needle, ok := pred.needle()
			if !ok {
				return db.Where("1 = 0")
			}
			// Both sides are folded already; LIKE only has to match bytes.
			return db.Where(`search_key LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(needle)+"%")
		}
		f := pred.Filters.Normalize()
		for _, facet := range Facets {
			if v := f.Get(facet); v != "" {
				db = db.Where(facet.Column()+" = ?", v)
			}
		}
		return db
	}
}

func (s *GormStore) collate() string {
	if s.postgres() {
		return ` COLLATE "C"`
	}
	return ""
}

func (s *GormStore) FindPage(ctx context.Context, pred Predicate, key SortKey, limit, offset int) ([]domain.Product, error) {
	if pred.IsSearch() {
		key = SortName
	}
	query := s.db.WithContext(ctx).Model(&domain.Product{}).Scopes(s.scope(pred)).Order(key.orderBy(s.collate()))
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	rows := make([]domain.Product, 0)
	if err := query.Find(&rows).Error; err != nil {
		return nil, storageErr("find", err)
	}
	return rows, nil
}

func (s *GormStore) CountMatching(ctx context.Context, pred Predicate) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&domain.Product{}).Scopes(s.scope(pred)).Count(&total).Error
	return total, storageErr("count", err)
}

func (s *GormStore) DistinctValues(ctx context.Context, facet Facet, pred Predicate) ([]string, error) {
	if !facet.Valid() {
		return nil, invalid("facet", string(facet))
	}
	var values []string
	err := s.db.WithContext(ctx).Model(&domain.Product{}).
		Scopes(s.scope(pred)).
		Where(facet.Column()+" <> ''").
		Distinct().
		Pluck(facet.Column(), &values).Error
	if err != nil {
		return nil, storageErr("distinct", err)
	}
	sort.Strings(values)
	return values, nil
}

func (s *GormStore) first(ctx context.Context, query string, arg interface{}) (*domain.Product, error) {
	var p domain.Product
	err := s.db.WithContext(ctx).Where(query, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "product %v", arg)
	}
	if err != nil {
		return nil, storageErr("get", err)
	}
	return &p, nil
}

func (s *GormStore) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormStore) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	return s.first(ctx, "code = ?", code)
}

func (s *GormStore) GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	out := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, storageErr("get many", err)
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// writeErr maps unique violations to ErrConflict.
func writeErr(op, code string, err error) error {
	if err == nil {
		return nil
	}
	if IsDuplicateKey(err) {
		return errors.Wrapf(ErrConflict, "product code %s already exists", code)
	}
	return storageErr(op, err)
}

// IsDuplicateKey reports a unique index violation from any supported driver.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func (s *GormStore) Create(ctx context.Context, p *domain.Product) error {
	if err := Prepare(p); err != nil {
		return err
	}
	p.ID = 0
	return writeErr("create", p.Code, s.db.WithContext(ctx).Create(p).Error)
}

func (s *GormStore) Update(ctx context.Context, p *domain.Product) error {
	if err := Prepare(p); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", p.ID).
		Select("*").Omit("id", "created_at").
		Updates(p)
	if res.Error != nil {
		return writeErr("update", p.Code, res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "product %d", p.ID)
	}
	var cur domain.Product
	err := s.db.WithContext(ctx).Select("created_at").Where("id = ?", p.ID).Take(&cur).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return storageErr("update", err)
	}
	p.CreatedAt = cur.CreatedAt
	return nil
}

// Reindex rebuilds search_key for rows written before the column existed.
func (s *GormStore) Reindex(ctx context.Context) (int, error) {
	var rows []domain.Product
	err := s.db.WithContext(ctx).Where("search_key = '' OR search_key IS NULL").Find(&rows).Error
	if err != nil {
		return 0, storageErr("reindex", err)
	}
	for i := range rows {
		key := SearchKey(&rows[i])
		err := s.db.WithContext(ctx).Model(&domain.Product{}).
			Where("id = ?", rows[i].ID).UpdateColumn("search_key", key).Error
		if err != nil {
			return i, storageErr("reindex", err)
		}
	}
	return len(rows), nil
}

func (s *GormStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&domain.Product{}, id)
	if res.Error != nil {
		return storageErr("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "product %d", id)
	}
	if s.events != nil {
		s.events.Publish(TopicProductDeleted, id)
	}
	return nil
}

func (s *GormStore) BulkCreate(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	batch := make(map[string]struct{}, len(products))
	for _, p := range products {
		if err := Prepare(p); err != nil {
			return errors.Wrapf(err, "product %s", p.Code)
		}
		if _, dup := batch[p.Code]; dup {
			return errors.Wrapf(ErrConflict, "product code %s repeated in batch", p.Code)
		}
		batch[p.Code] = struct{}{}
		p.ID = 0
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(products, 100).Error; err != nil {
			if IsDuplicateKey(err) {
				return errors.Wrap(ErrConflict, "bulk insert hit an existing product code")
			}
			return storageErr("bulk create", err)
		}
		return nil
	})
}
