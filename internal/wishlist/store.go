package wishlist

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"gorm.io/gorm"
)

// Store persists (user, product) associations. Insert must be a single
// atomic operation that fails with catalog.ErrConflict for an existing pair.
type Store interface {
	Insert(ctx context.Context, item *domain.WishlistItem) error
	Delete(ctx context.Context, userID, productID int64) (bool, error)
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	// ListByUser returns the newest entries first.
	ListByUser(ctx context.Context, userID int64) ([]domain.WishlistItem, error)
	DeleteByProduct(ctx context.Context, productID int64) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	ProductIDs(ctx context.Context) ([]int64, error)
	Count(ctx context.Context) (int64, error)
}

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, item *domain.WishlistItem) error {
	err := s.db.WithContext(ctx).Create(item).Error
	if err != nil && catalog.IsDuplicateKey(err) {
		return errors.Wrapf(catalog.ErrConflict, "product %d already in wishlist", item.ProductID)
	}
	if err != nil {
		return &catalog.StorageError{Op: "wishlist insert", Err: err}
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, userID, productID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&domain.WishlistItem{})
	if res.Error != nil {
		return false, &catalog.StorageError{Op: "wishlist delete", Err: res.Error}
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	if err != nil {
		return false, &catalog.StorageError{Op: "wishlist exists", Err: err}
	}
	return n > 0, nil
}

func (s *GormStore) ListByUser(ctx context.Context, userID int64) ([]domain.WishlistItem, error) {
	rows := make([]domain.WishlistItem, 0)
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Find(&rows).Error
	if err != nil {
		return nil, &catalog.StorageError{Op: "wishlist list", Err: err}
	}
	return rows, nil
}

func (s *GormStore) deleteWhere(ctx context.Context, query string, arg int64) (int64, error) {
	res := s.db.WithContext(ctx).Where(query, arg).Delete(&domain.WishlistItem{})
	if res.Error != nil {
		return 0, &catalog.StorageError{Op: "wishlist cascade", Err: res.Error}
	}
	return res.RowsAffected, nil
}

func (s *GormStore) DeleteByProduct(ctx context.Context, productID int64) (int64, error) {
	return s.deleteWhere(ctx, "product_id = ?", productID)
}

func (s *GormStore) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	return s.deleteWhere(ctx, "user_id = ?", userID)
}

func (s *GormStore) ProductIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&domain.WishlistItem{}).Distinct().Pluck("product_id", &ids).Error
	if err != nil {
		return nil, &catalog.StorageError{Op: "wishlist products", Err: err}
	}
	return ids, nil
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.WishlistItem{}).Count(&n).Error; err != nil {
		return 0, &catalog.StorageError{Op: "wishlist count", Err: err}
	}
	return n, nil
}

type pair struct {
	user, product int64
}

// MemoryStore is the process local Store used with the memory catalog.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[pair]domain.WishlistItem
	nextID int64
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[pair]domain.WishlistItem), now: time.Now}
}

func (s *MemoryStore) Insert(ctx context.Context, item *domain.WishlistItem) error {
	key := pair{item.UserID, item.ProductID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return errors.Wrapf(catalog.ErrConflict, "product %d already in wishlist", item.ProductID)
	}
	s.nextID++
	item.ID = s.nextID
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}
	s.items[key] = *item
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID, productID int64) (bool, error) {
	key := pair{userID, productID}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	delete(s.items, key)
	return ok, nil
}

func (s *MemoryStore) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[pair{userID, productID}]
	return ok, nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID int64) ([]domain.WishlistItem, error) {
	s.mu.RLock()
	rows := make([]domain.WishlistItem, 0)
	for k, v := range s.items {
		if k.user == userID {
			rows = append(rows, v)
		}
	}
	s.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})
	return rows, nil
}

func (s *MemoryStore) deleteMatching(match func(pair) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.items {
		if match(k) {
			delete(s.items, k)
			n++
		}
	}
	return n
}

func (s *MemoryStore) DeleteByProduct(ctx context.Context, productID int64) (int64, error) {
	return s.deleteMatching(func(k pair) bool { return k.product == productID }), nil
}

func (s *MemoryStore) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	return s.deleteMatching(func(k pair) bool { return k.user == userID }), nil
}

func (s *MemoryStore) ProductIDs(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for k := range s.items {
		if _, ok := seen[k.product]; !ok {
			seen[k.product] = struct{}{}
			ids = append(ids, k.product)
		}
	}
	return ids, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.items)), nil
}
