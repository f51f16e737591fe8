package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaugeAndCounter(t *testing.T) {
	require.NoError(t, InitMetrics(t.TempDir()))
	t.Cleanup(func() { _ = Close() })

	SetGauge("system_cpuuse", 1234)
	v, ok := Get("system_cpuuse")
	assert.True(t, ok)
	assert.EqualValues(t, 1234, v)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Incr("http_requests", 1)
		}()
	}
	wg.Wait()
	v, _ = Get("http_requests")
	assert.EqualValues(t, 50, v)

	snap := Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "http_requests", snap[0].Name)
	assert.EqualValues(t, 50, snap[0].Value)
	assert.Equal(t, "system_cpuuse", snap[1].Name)

	_, ok = Get("missing")
	assert.False(t, ok)
}

func TestSeriesKeepsHistory(t *testing.T) {
	require.NoError(t, InitMetrics(t.TempDir()))
	t.Cleanup(func() { _ = Close() })

	since := time.Now().Add(-time.Second)
	for _, v := range []int64{10, 20, 30} {
		SetGauge("catalog_products_active", v)
	}
	points := Series("catalog_products_active", since)
	require.Len(t, points, 3)
	assert.EqualValues(t, 10, points[0].Value)
	assert.EqualValues(t, 30, points[2].Value)
	assert.Empty(t, Series("catalog_products_active", time.Now().Add(time.Hour)))
}

func TestSeriesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitMetrics(dir))
	SetGauge("vfcatalog_memuse", 64)
	Incr("http_requests_total", 7)
	require.NoError(t, Close())

	require.NoError(t, InitMetrics(dir))
	t.Cleanup(func() { _ = Close() })
	v, ok := Get("vfcatalog_memuse")
	require.True(t, ok)
	assert.EqualValues(t, 64, v)
	assert.EqualValues(t, 8, Incr("http_requests_total", 1))
	assert.DirExists(t, dir+"/data/metrics")
}

func TestLazyInMemoryStorage(t *testing.T) {
	require.NoError(t, Close())
	SetGauge("lazy", 3)
	v, ok := Get("lazy")
	assert.True(t, ok)
	assert.EqualValues(t, 3, v)
	require.NoError(t, Close())
}
