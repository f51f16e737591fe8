package app

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/pkg/metrics"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ErrUnknownJob is returned by RunJob for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// JobInfo describes a registered background job.
type JobInfo struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next,omitempty"`
	Prev time.Time `json:"prev,omitempty"`
}

type job struct {
	name string
	spec string
	fn   func()
	id   cron.EntryID
}

func (a *Application) jobTable() []*job {
	if a.jobs == nil {
		a.jobs = []*job{
			{name: "monitor", spec: "@every 30s", fn: func() {
				go a.SchedSystemMonitorTask()
				go a.SchedProcessMonitorTask()
			}},
			{name: "catalog-gauge", spec: "@hourly", fn: a.SchedCatalogGaugeTask},
			{name: "cleanup", spec: "@daily", fn: a.SchedCleanupTask},
		}
	}
	return a.jobs
}

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	for _, j := range a.jobTable() {
		id, err := a.sched.AddFunc(j.spec, j.fn)
		if err != nil {
			zap.S().Errorf("init job %s error %s", j.name, err.Error())
			continue
		}
		j.id = id
	}

	go a.SchedCatalogGaugeTask()
	a.sched.Start()
}

// Jobs lists the background jobs with their next and previous run times
// when the scheduler is running.
func (a *Application) Jobs() []JobInfo {
	table := a.jobTable()
	infos := make([]JobInfo, 0, len(table))
	for _, j := range table {
		info := JobInfo{Name: j.name, Spec: j.spec}
		if a.sched != nil && j.id != 0 {
			entry := a.sched.Entry(j.id)
			info.Next, info.Prev = entry.Next, entry.Prev
		}
		infos = append(infos, info)
	}
	return infos
}

// RunJob runs the named job immediately on the calling goroutine.
func (a *Application) RunJob(name string) error {
	for _, j := range a.jobTable() {
		if j.name == name {
			zap.L().Info("running job on demand", zap.String("job", name))
			j.fn()
			return nil
		}
	}
	return errors.Wrap(ErrUnknownJob, name)
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.SetGauge("system_cpuuse", int64(_cpuuse[0]*100)) // percentage * 100
	}

	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SetGauge("system_memuse", int64(_meminfo.Used/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}
	if cpuuse, err := p.CPUPercent(); err == nil {
		metrics.SetGauge("vfcatalog_cpuuse", int64(cpuuse*100))
	}
	if meminfo, err := p.MemoryInfo(); err == nil {
		metrics.SetGauge("vfcatalog_memuse", int64(meminfo.RSS/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

// SchedCatalogGaugeTask publishes product and wishlist totals.
func (a *Application) SchedCatalogGaugeTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, status := range []string{domain.ProductActive, domain.ProductInactive, domain.ProductDraft} {
		n, err := a.products.CountMatching(ctx, catalog.Predicate{Status: status})
		if err != nil {
			zap.L().Warn("catalog gauge failed", zap.String("status", status), zap.Error(err))
			return
		}
		metrics.SetGauge("catalog_products_"+status, n)
	}
	if n, err := a.wishlist.Count(ctx); err == nil {
		metrics.SetGauge("catalog_wishlist_items", n)
	}
}

// SchedCleanupTask trims the operation log and removes wishlist rows whose
// product no longer exists.
func (a *Application) SchedCleanupTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	a.gormDB.
		Where("opt_time < ? ", time.Now().
			Add(-time.Hour*24*365)).Delete(domain.SysOprLog{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	n, err := a.wishlist.PruneOrphans(ctx)
	if err != nil {
		zap.L().Error("wishlist prune failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("pruned orphan wishlist items", zap.Int64("count", n))
	}
}
