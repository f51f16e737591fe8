package app

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/vfstudio/vfcatalog/config"
	"github.com/vfstudio/vfcatalog/internal/account"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/catalog/transfer"
	"github.com/vfstudio/vfcatalog/internal/feedback"
	"github.com/vfstudio/vfcatalog/internal/wishlist"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
	Jobs() []JobInfo
	RunJob(name string) error
}

// CatalogProvider provides the product repository and the services built on it
type CatalogProvider interface {
	Products() catalog.Store
	Listing() *catalog.ListingService
	Facets() *catalog.FacetEngine
	Importer() *transfer.Importer
}

// AccountProvider provides user registration and administration
type AccountProvider interface {
	Accounts() *account.Service
}

type WishlistProvider interface {
	Wishlist() *wishlist.Service
}

type FeedbackProvider interface {
	Feedback() *feedback.Service
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	CatalogProvider
	AccountProvider
	WishlistProvider
	FeedbackProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	// RecordOperation appends an entry to the admin operation log
	RecordOperation(ctx context.Context, operator, ip, action, desc string)
}
