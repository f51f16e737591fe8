package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"github.com/vfstudio/vfcatalog/config"
	"github.com/vfstudio/vfcatalog/internal/account"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/catalog/transfer"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/feedback"
	"github.com/vfstudio/vfcatalog/internal/notify"
	"github.com/vfstudio/vfcatalog/internal/wishlist"
	"github.com/vfstudio/vfcatalog/pkg/common"
	"github.com/vfstudio/vfcatalog/pkg/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	jobs      []*job
	bus       EventBus.Bus

	products catalog.Store
	listing  *catalog.ListingService
	facets   *catalog.FacetEngine
	importer *transfer.Importer
	accounts *account.Service
	wishlist *wishlist.Service
	feedback *feedback.Service
	mailer   *notify.Mailer
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ CatalogProvider   = (*Application)(nil)
	_ AccountProvider   = (*Application)(nil)
	_ WishlistProvider  = (*Application)(nil)
	_ FeedbackProvider  = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	a := &Application{appConfig: appConfig}
	a.jobTable()
	return a
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Products() catalog.Store { return a.products }
func (a *Application) Listing() *catalog.ListingService { return a.listing }
func (a *Application) Facets() *catalog.FacetEngine { return a.facets }
func (a *Application) Importer() *transfer.Importer { return a.importer }
func (a *Application) Accounts() *account.Service { return a.accounts }
func (a *Application) Wishlist() *wishlist.Service { return a.wishlist }
func (a *Application) Feedback() *feedback.Service { return a.feedback }

func (a *Application) Init(cfg *config.AppConfig) {
	if err := a.Open(cfg); err != nil {
		zap.S().Fatalf("database connection failed: %v", err)
	}
	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.InitServices()
	a.reindexProducts()
	a.checkPrimaryAdmin()
	if cfg.MemoryMode() {
		a.checkProducts()
	}

	a.initJob()
}

// Open sets up time zone, logging, metrics and the database connection. The
// command line tools stop here; Init goes on to start the services and jobs.
func (a *Application) Open(cfg *config.AppConfig) error {
	a.appConfig = cfg
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	zap.ReplaceGlobals(newLogger(cfg.Logger))

	// Initialize metrics with workdir convention
	if err := metrics.InitMetrics(cfg.System.Workdir); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB, err = getDatabase(cfg.Database, cfg.System.Workdir)
	if err != nil {
		return err
	}
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)
	return nil
}

// InitServices builds the stores and services on top of the current database
// handle. Memory mode keeps products and wishlists in process memory.
func (a *Application) InitServices() {
	a.bus = EventBus.New()
	if a.appConfig.MemoryMode() {
		a.products = catalog.NewMemoryStore(a.bus)
		a.wishlist = wishlist.NewService(wishlist.NewMemoryStore(), a.products)
	} else {
		a.products = catalog.NewGormStore(a.gormDB, a.bus)
		a.wishlist = wishlist.NewService(wishlist.NewGormStore(a.gormDB), a.products)
	}
	a.listing = catalog.NewListingService(a.products)
	a.facets = catalog.NewFacetEngine(a.products)
	a.importer = transfer.NewImporter(a.products, 0)
	a.accounts = account.NewService(account.NewGormRepository(a.gormDB), a.bus, a.appConfig.System.Region)
	a.mailer = notify.NewMailer(a.appConfig.Smtp, a.appConfig.System.Appid)
	a.feedback = feedback.NewService(feedback.NewGormRepository(a.gormDB), a.products, a.mailer)

	if err := a.wishlist.Subscribe(a.bus); err != nil {
		zap.L().Error("wishlist cascade subscription failed", zap.Error(err))
	}
}

// reindexProducts fills search keys for rows stored before the column was
// added. Memory mode has nothing persisted.
func (a *Application) reindexProducts() {
	store, ok := a.products.(*catalog.GormStore)
	if !ok {
		return
	}
	n, err := store.Reindex(context.Background())
	if err != nil {
		zap.L().Error("product search reindex failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("product search keys rebuilt", zap.Int("count", n))
	}
}

func newLogger(cfg config.LogConfig) *zap.Logger {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	if !cfg.FileEnable {
		logger, err := zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
		return logger
	}

	rotate := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     7,
	}
	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotate),
			zapConfig.Level,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			zapConfig.Level,
		),
	)
	return zap.New(core, zap.AddCaller())
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			if err2, ok := err1.(error); ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

// DropAll removes every table, used by the migrate command's reset flag.
func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) RecordOperation(ctx context.Context, operator, ip, action, desc string) {
	entry := domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   operator,
		OprIp:     ip,
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}
	if err := a.gormDB.WithContext(ctx).Create(&entry).Error; err != nil {
		zap.L().Warn("failed to record operation", zap.String("action", action), zap.Error(err))
	}
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
