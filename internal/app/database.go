package app

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/vfstudio/vfcatalog/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// getDatabase opens the configured database. The memory type uses a shared
// in-memory sqlite database for users and feedback; products and wishlists
// then live in process memory.
func getDatabase(cfg config.DBConfig, workdir string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
	if cfg.Debug {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		dialector gorm.Dialector
		maxConn   = cfg.MaxConn
		idleConn  = cfg.IdleConn
	)
	switch strings.ToLower(cfg.Type) {
	case "postgres", "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
		dialector = postgres.Open(dsn)
	case "sqlite":
		name := cfg.Name
		if name == "" {
			name = "vfcatalog"
		}
		dialector = sqlite.Open(path.Join(workdir, "data", name+".db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
		maxConn, idleConn = 1, 1
	case "memory":
		dialector = sqlite.Open("file:vfcatalog?mode=memory&cache=shared")
		maxConn, idleConn = 1, 1
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if maxConn > 0 {
		sqlDB.SetMaxOpenConns(maxConn)
	}
	if idleConn > 0 {
		sqlDB.SetMaxIdleConns(idleConn)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	zap.L().Debug("database opened", zap.String("type", cfg.Type), zap.Int("max_conn", maxConn))
	return db, nil
}
