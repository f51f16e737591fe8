package app

import (
	"context"
	"time"

	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"go.uber.org/zap"
)

// checkPrimaryAdmin makes sure the configured primary administrator exists.
func (a *Application) checkPrimaryAdmin() {
	cfg := a.appConfig.Admin
	if cfg.Whatsapp == "" {
		zap.L().Warn("no primary admin whatsapp number configured")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := a.accounts.EnsurePrimaryAdmin(ctx, cfg.Whatsapp, cfg.Name)
	if err != nil {
		zap.L().Error("failed to initialize primary admin", zap.String("whatsapp", cfg.Whatsapp), zap.Error(err))
		return
	}
	zap.L().Info("primary admin ready", zap.Int64("user_id", user.ID), zap.String("whatsapp", user.Whatsapp))
}

// checkProducts seeds a small demo catalog when the store is empty.
func (a *Application) checkProducts() {
	ctx := context.Background()
	n, err := a.products.CountMatching(ctx, catalog.Predicate{})
	if err != nil || n > 0 {
		return
	}

	demo := []*domain.Product{
		{Code: "VF-CH-001", Name: "Aria Dining Chair", Category: "Chair", Finish: "Walnut", Material: "Teak", Length: 45, Breadth: 50, Height: 90},
		{Code: "VF-CH-002", Name: "Bento Lounge Chair", Category: "Chair", Finish: "Natural", Material: "Oak", Length: 70, Breadth: 75, Height: 80},
		{Code: "VF-TB-001", Name: "Cove Coffee Table", Category: "Table", Finish: "Walnut", Material: "Sheesham", Length: 120, Breadth: 60, Height: 45},
		{Code: "VF-TB-002", Name: "Dune Dining Table", Category: "Table", Finish: "Matte Black", Material: "Mango Wood", Length: 180, Breadth: 90, Height: 76},
		{Code: "VF-SF-001", Name: "Ember Three Seater", Category: "Sofa", Finish: "Natural", Material: "Teak", Length: 210, Breadth: 85, Height: 82},
		{Code: "VF-BD-001", Name: "Fable King Bed", Category: "Bed", Finish: "Honey", Material: "Sheesham", Length: 215, Breadth: 190, Height: 110},
	}
	if err := a.products.BulkCreate(ctx, demo); err != nil {
		zap.L().Error("failed to seed demo products", zap.Error(err))
		return
	}
	zap.L().Info("initialized demo products", zap.Int("count", len(demo)))
}
