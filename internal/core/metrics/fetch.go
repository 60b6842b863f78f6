package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 请求结果标签
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeDenied       = "denied"
	OutcomeOffline      = "offline"
	OutcomeTimeout      = "timeout"
	OutcomeError        = "error"
	OutcomeShortCircuit = "short_circuit"
)

// 缓存查询结果标签
const (
	CacheFresh    = "fresh"
	CacheStale    = "stale"
	CacheMiss     = "miss"
	CacheNegative = "negative"
)

const namespace = "concrnt"

// FetchMetrics fetch 引擎的 Prometheus 指标
type FetchMetrics struct {
	requests     *prometheus.CounterVec
	cache        *prometheus.CounterVec
	circuitOpens *prometheus.CounterVec
	shared       prometheus.Counter
	latency      *prometheus.HistogramVec
}

// NewFetchMetrics 创建指标，reg 不为 nil 时注册
//
// 同一 Registerer 上重复创建时复用已注册的指标。
func NewFetchMetrics(reg prometheus.Registerer) *FetchMetrics {
	m := &FetchMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Network requests by server and outcome.",
		}, []string{"host", "outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		circuitOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "circuit_open_total",
			Help:      "Times a server was marked unavailable.",
		}, []string{"host"}),
		shared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "shared_requests_total",
			Help:      "Callers that joined an in-flight request for the same key.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "request_duration_seconds",
			Help:      "Network request latency by server.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"host"}),
	}
	if reg == nil {
		return m
	}

	m.requests = register(reg, m.requests)
	m.cache = register(reg, m.cache)
	m.circuitOpens = register(reg, m.circuitOpens)
	m.shared = register(reg, m.shared)
	m.latency = register(reg, m.latency)
	return m
}

// register 注册指标，已注册时返回现有实例
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		logger.Warn("注册指标失败", "error", err)
	}
	return c
}

// Request 记录一次网络请求的结果
func (m *FetchMetrics) Request(host, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(host, outcome).Inc()
}

// CacheLookup 记录一次缓存查询
func (m *FetchMetrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}

// CircuitOpen 记录服务器被标记为不可用
func (m *FetchMetrics) CircuitOpen(host string) {
	if m == nil {
		return
	}
	m.circuitOpens.WithLabelValues(host).Inc()
}

// Shared 记录一次合并到进行中请求的调用
func (m *FetchMetrics) Shared() {
	if m == nil {
		return
	}
	m.shared.Inc()
}

// ObserveLatency 记录请求耗时
func (m *FetchMetrics) ObserveLatency(host string, d time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(host).Observe(d.Seconds())
}
