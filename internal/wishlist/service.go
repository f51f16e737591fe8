// Package wishlist keeps each user's saved products.
package wishlist

import (
	"context"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/vfstudio/vfcatalog/internal/account"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"go.uber.org/zap"
)

type Service struct {
	store    Store
	products catalog.Store
}

func NewService(store Store, products catalog.Store) *Service {
	return &Service{store: store, products: products}
}

// Subscribe removes entries whenever a product or user is deleted.
func (s *Service) Subscribe(bus EventBus.BusSubscriber) error {
	if err := bus.Subscribe(catalog.TopicProductDeleted, s.onProductDeleted); err != nil {
		return err
	}
	return bus.Subscribe(account.TopicUserDeleted, s.onUserDeleted)
}

func (s *Service) onProductDeleted(productID int64) {
	n, err := s.store.DeleteByProduct(context.Background(), productID)
	if err != nil {
		zap.L().Error("wishlist cascade failed", zap.Int64("product_id", productID), zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Debug("wishlist entries removed with product", zap.Int64("product_id", productID), zap.Int64("count", n))
	}
}

func (s *Service) onUserDeleted(userID int64) {
	if _, err := s.store.DeleteByUser(context.Background(), userID); err != nil {
		zap.L().Error("wishlist cascade failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Add saves the product for the user. It fails with catalog.ErrNotFound for
// an unknown product and catalog.ErrConflict when already saved.
func (s *Service) Add(ctx context.Context, userID, productID int64) (*domain.WishlistItem, error) {
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}
	item := &domain.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.store.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Remove reports whether an entry was deleted. Removing a missing entry is not an error.
func (s *Service) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	return s.store.Delete(ctx, userID, productID)
}

func (s *Service) IsMember(ctx context.Context, userID, productID int64) (bool, error) {
	return s.store.Exists(ctx, userID, productID)
}

// ListForUser joins entries with their products. Entries whose product is
// gone are left out.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]domain.WishlistEntry, error) {
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.WishlistEntry, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		out = append(out, domain.WishlistEntry{WishlistItem: it, Product: p})
	}
	return out, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// PruneOrphans deletes entries pointing at products that no longer exist.
func (s *Service) PruneOrphans(ctx context.Context) (int64, error) {
	ids, err := s.store.ProductIDs(ctx)
	if err != nil {
		return 0, err
	}
	live, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	var removed int64
	for _, id := range ids {
		if _, ok := live[id]; ok {
			continue
		}
		n, err := s.store.DeleteByProduct(ctx, id)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}
