package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfstudio/vfcatalog/config"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/testutil"
)

func newTestApp(t *testing.T, dbType string) *Application {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = t.TempDir()
	cfg.Database.Type = dbType
	a := NewApplication(cfg)
	a.OverrideDB(testutil.NewTestDB(t))
	a.InitServices()
	return a
}

func TestMemoryModeSeedsDemoCatalog(t *testing.T) {
	a := newTestApp(t, "memory")
	a.checkProducts()

	ctx := context.Background()
	n, err := a.Products().CountMatching(ctx, catalog.Predicate{})
	require.NoError(t, err)
	assert.Positive(t, n)

	// a second pass leaves a non-empty catalog alone
	a.checkProducts()
	again, err := a.Products().CountMatching(ctx, catalog.Predicate{})
	require.NoError(t, err)
	assert.Equal(t, n, again)

	var rows int64
	require.NoError(t, a.DB().Model(&domain.Product{}).Count(&rows).Error)
	assert.Zero(t, rows, "memory mode keeps products out of the database")
}

func TestCheckPrimaryAdmin(t *testing.T) {
	a := newTestApp(t, "sqlite")
	a.checkPrimaryAdmin()
	a.checkPrimaryAdmin()

	n, err := a.Accounts().Count(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecordOperation(t *testing.T) {
	a := newTestApp(t, "sqlite")
	a.RecordOperation(context.Background(), "+919876510001", "127.0.0.1", "product_create", "created VF-1")

	var logs []domain.SysOprLog
	require.NoError(t, a.DB().Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.NotZero(t, logs[0].ID)
	assert.Equal(t, "product_create", logs[0].OptAction)
	assert.WithinDuration(t, time.Now(), logs[0].OptTime, time.Minute)
}

func TestCleanupPrunesOldLogsAndOrphans(t *testing.T) {
	a := newTestApp(t, "sqlite")
	ctx := context.Background()
	require.NoError(t, a.DB().Create(&domain.SysOprLog{ID: 1, OptAction: "old", OptTime: time.Now().AddDate(-2, 0, 0)}).Error)
	require.NoError(t, a.DB().Create(&domain.SysOprLog{ID: 2, OptAction: "new", OptTime: time.Now()}).Error)
	// a wishlist row for a product that never existed
	require.NoError(t, a.DB().Create(&domain.WishlistItem{UserID: 7, ProductID: 999}).Error)

	a.SchedCleanupTask()

	var actions []string
	require.NoError(t, a.DB().Model(&domain.SysOprLog{}).Pluck("opt_action", &actions).Error)
	assert.Equal(t, []string{"new"}, actions)
	n, err := a.Wishlist().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJobsWithoutScheduler(t *testing.T) {
	a := newTestApp(t, "memory")
	jobs := a.Jobs()
	require.Len(t, jobs, 3)
	for _, j := range jobs {
		assert.NotEmpty(t, j.Spec)
		assert.True(t, j.Next.IsZero())
	}
	assert.ErrorIs(t, a.RunJob("missing"), ErrUnknownJob)
	assert.NoError(t, a.RunJob("cleanup"))
}
