package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMetrics_Counters(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := NewFetchMetrics(reg)

	m.Request("a.example", OutcomeOK)
	m.Request("a.example", OutcomeOK)
	m.Request("b.example", OutcomeOffline)
	m.CacheLookup(CacheFresh)
	m.CircuitOpen("b.example")
	m.Shared()
	m.ObserveLatency("a.example", 30*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("a.example", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("b.example", OutcomeOffline)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues(CacheFresh)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.circuitOpens.WithLabelValues("b.example")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shared))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestFetchMetrics_Reregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewFetchMetrics(reg)
	b := NewFetchMetrics(reg)

	a.Shared()
	b.Shared()
	assert.Equal(t, 2.0, testutil.ToFloat64(a.shared), "重复创建共享同一组指标")
}

func TestFetchMetrics_Nil(t *testing.T) {
	var m *FetchMetrics
	assert.NotPanics(t, func() {
		m.Request("x", OutcomeOK)
		m.CacheLookup(CacheMiss)
		m.CircuitOpen("x")
		m.Shared()
		m.ObserveLatency("x", time.Second)
	})

	unregistered := NewFetchMetrics(nil)
	unregistered.Shared()
	assert.Equal(t, 1.0, testutil.ToFloat64(unregistered.shared))
}

func TestRateMeter_Window(t *testing.T) {
	mock := clock.NewMock()
	r := NewRateMeter(mock)

	r.Add(600)
	assert.Equal(t, int64(600), r.Total())
	assert.InDelta(t, 10.0, r.Rate(), 0.001)

	mock.Add(30 * time.Second)
	r.Add(60)
	assert.Equal(t, int64(660), r.Total())

	// 第一个桶滑出窗口
	mock.Add(31 * time.Second)
	assert.Equal(t, int64(60), r.Total())

	mock.Add(2 * time.Minute)
	assert.Equal(t, int64(0), r.Total())

	r.Add(5)
	r.Reset()
	assert.Equal(t, int64(0), r.Total())
}

func TestBandwidthCounter(t *testing.T) {
	mock := clock.NewMock()
	bwc := NewBandwidthCounter(WithBandwidthClock(mock))

	bwc.LogRecv("a.example", 1000)
	bwc.LogSent("a.example", 100)
	bwc.LogRecv("b.example", 500)
	bwc.LogRecv("b.example", 0)

	a := bwc.ForHost("a.example")
	assert.Equal(t, int64(1000), a.TotalIn)
	assert.Equal(t, int64(100), a.TotalOut)

	total := bwc.Totals()
	assert.Equal(t, int64(1500), total.TotalIn)
	assert.Equal(t, int64(100), total.TotalOut)

	assert.Len(t, bwc.ByHost(), 2)
	assert.Equal(t, Stats{}, bwc.ForHost("unknown"))

	mock.Add(time.Minute)
	bwc.LogRecv("a.example", 1)
	assert.Equal(t, 1, bwc.TrimIdle(mock.Now().Add(-time.Second)))
	assert.Len(t, bwc.ByHost(), 1)

	bwc.Reset()
	assert.Equal(t, Stats{}, bwc.Totals())
	assert.Empty(t, bwc.ByHost())
}

func TestBandwidthCounter_Concurrent(t *testing.T) {
	bwc := NewBandwidthCounter()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bwc.LogRecv("a.example", 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2000), bwc.ForHost("a.example").TotalIn)
}

func TestBandwidthCounter_Nil(t *testing.T) {
	var bwc *BandwidthCounter
	bwc.LogRecv("a", 1)
	bwc.LogSent("a", 1)
	assert.Equal(t, Stats{}, bwc.Totals())
	assert.Nil(t, bwc.ByHost())
}
