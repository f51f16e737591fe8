// Package metrics records gauges and counters sampled by the background jobs
// and the request middleware in a tstorage time series database under
// <workdir>/data/metrics.
package metrics

import (
	"math"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const retention = 14 * 24 * time.Hour

type Point struct {
	Name      string    `json:"name"`
	Value     int64     `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

type registry struct {
	mu      sync.RWMutex
	storage tstorage.Storage
	names   map[string]struct{}

	// cmu serializes counter updates so stored points stay in value order.
	cmu      sync.Mutex
	counters map[string]int64
}

var std = &registry{}

// InitMetrics opens the series database in <workdir>/data/metrics. An empty
// workdir keeps the series in memory only.
func InitMetrics(workdir string) error {
	storage, err := openStorage(workdir)
	if err != nil {
		return err
	}
	std.cmu.Lock()
	std.mu.Lock()
	old := std.storage
	std.reset(storage)
	std.mu.Unlock()
	std.cmu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

func openStorage(workdir string) (tstorage.Storage, error) {
	opts := []tstorage.Option{
		tstorage.WithTimestampPrecision(tstorage.Nanoseconds),
		tstorage.WithRetention(retention),
		tstorage.WithPartitionDuration(time.Hour),
	}
	if workdir != "" {
		dir := path.Join(workdir, "data", "metrics")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create metrics dir")
		}
		opts = append(opts, tstorage.WithDataPath(dir))
	}
	storage, err := tstorage.NewStorage(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "open metrics storage")
	}
	return storage, nil
}

// reset must be called with both locks held.
func (r *registry) reset(storage tstorage.Storage) {
	r.storage = storage
	r.names = make(map[string]struct{})
	r.counters = make(map[string]int64)
}

// db returns the open storage, falling back to an in-memory one when
// InitMetrics was never called.
func (r *registry) db() tstorage.Storage {
	r.mu.RLock()
	s := r.storage
	r.mu.RUnlock()
	if s != nil {
		return s
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.storage == nil {
		storage, err := openStorage("")
		if err != nil {
			zap.L().Error("metrics storage unavailable", zap.Error(err))
			return nil
		}
		r.storage = storage
		if r.names == nil {
			r.names = make(map[string]struct{})
		}
	}
	return r.storage
}

func (r *registry) insert(name string, value int64, at time.Time) {
	s := r.db()
	if s == nil {
		return
	}
	err := s.InsertRows([]tstorage.Row{{
		Metric:    name,
		DataPoint: tstorage.DataPoint{Timestamp: at.UnixNano(), Value: float64(value)},
	}})
	if err != nil {
		zap.L().Warn("metrics insert failed", zap.String("metric", name), zap.Error(err))
		return
	}
	r.mu.Lock()
	r.names[name] = struct{}{}
	r.mu.Unlock()
}

func (r *registry) latest(name string) (Point, bool) {
	points := r.series(name, 0)
	if len(points) == 0 {
		return Point{}, false
	}
	return points[len(points)-1], true
}

func (r *registry) series(name string, since int64) []Point {
	s := r.db()
	if s == nil {
		return nil
	}
	dps, err := s.Select(name, nil, since, math.MaxInt64)
	if err != nil {
		if !errors.Is(err, tstorage.ErrNoDataPoints) {
			zap.L().Warn("metrics select failed", zap.String("metric", name), zap.Error(err))
		}
		return nil
	}
	out := make([]Point, 0, len(dps))
	for _, dp := range dps {
		out = append(out, Point{Name: name, Value: int64(dp.Value), Timestamp: time.Unix(0, dp.Timestamp)})
	}
	return out
}

func SetGauge(name string, value int64) {
	std.insert(name, value, time.Now())
}

// Incr adds delta to a counter and returns the new value. A counter unseen
// since start resumes from its last stored value.
func Incr(name string, delta int64) int64 {
	std.cmu.Lock()
	defer std.cmu.Unlock()
	if std.counters == nil {
		std.counters = make(map[string]int64)
	}
	v, ok := std.counters[name]
	if !ok {
		if p, found := std.latest(name); found {
			v = p.Value
		}
	}
	v += delta
	std.counters[name] = v
	std.insert(name, v, time.Now())
	return v
}

// Get returns the most recent value of a series.
func Get(name string) (int64, bool) {
	p, ok := std.latest(name)
	return p.Value, ok
}

// Series returns the stored points of a series newer than since, oldest first.
func Series(name string, since time.Time) []Point {
	return std.series(name, since.UnixNano())
}

// Snapshot returns the latest point of every series written since start,
// ordered by name.
func Snapshot() []Point {
	std.mu.RLock()
	names := make([]string, 0, len(std.names))
	for name := range std.names {
		names = append(names, name)
	}
	std.mu.RUnlock()
	sort.Strings(names)

	out := make([]Point, 0, len(names))
	for _, name := range names {
		if p, ok := std.latest(name); ok {
			out = append(out, p)
		}
	}
	return out
}

// Close flushes buffered points to disk.
func Close() error {
	std.mu.Lock()
	s := std.storage
	std.storage = nil
	std.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Close()
}
