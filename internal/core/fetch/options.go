package fetch

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-concrnt/internal/core/metrics"
)

// ============================================================================
//                              缓存模式
// ============================================================================

// CacheMode 单次请求的缓存策略
type CacheMode int

const (
	// CacheDefault 新鲜条目直接返回，过期条目先返回再后台刷新
	CacheDefault CacheMode = iota

	// CacheForce 只读缓存，不发起网络请求
	CacheForce

	// CacheNone 忽略缓存直接请求，结果仍写入缓存
	CacheNone

	// CacheBestEffort 同默认，但负缓存不作数，改为同步请求
	CacheBestEffort

	// CacheNegativeOnly 只记录 404，不缓存正常结果
	CacheNegativeOnly
)

// String 返回模式名称
func (m CacheMode) String() string {
	switch m {
	case CacheDefault:
		return "default"
	case CacheForce:
		return "force-cache"
	case CacheNone:
		return "no-cache"
	case CacheBestEffort:
		return "best-effort"
	case CacheNegativeOnly:
		return "negative-only"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              请求选项
// ============================================================================

// Option 单次请求选项
type Option func(*requestOptions)

type requestOptions struct {
	mode    CacheMode
	ttl     time.Duration
	hasTTL  bool
	noAuth  bool
	timeout time.Duration
	express func(json.RawMessage)
}

// WithCacheMode 设置缓存策略
func WithCacheMode(mode CacheMode) Option {
	return func(o *requestOptions) {
		o.mode = mode
	}
}

// WithTTL 覆盖正向结果的有效期，0 表示永不过期
func WithTTL(d time.Duration) Option {
	return func(o *requestOptions) {
		o.ttl = d
		o.hasTTL = true
	}
}

// WithoutAuth 不附带认证头
func WithoutAuth() Option {
	return func(o *requestOptions) {
		o.noAuth = true
	}
}

// WithTimeout 设置本次请求超时
func WithTimeout(d time.Duration) Option {
	return func(o *requestOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithExpressGetter 设置提前取值回调
//
// 命中任意正向缓存条目（包括过期条目）以及网络请求成功后、写入缓存前
// 都会调用 fn。
func WithExpressGetter(fn func(json.RawMessage)) Option {
	return func(o *requestOptions) {
		o.express = fn
	}
}

// ============================================================================
//                              引擎选项
// ============================================================================

// EngineOption 引擎选项
type EngineOption func(*engineOptions)

type engineOptions struct {
	client    *http.Client
	clock     clock.Clock
	metrics   *metrics.FetchMetrics
	bandwidth *metrics.BandwidthCounter
}

func applyEngineOptions(opts []EngineOption) engineOptions {
	o := engineOptions{
		client: http.DefaultClient,
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHTTPClient 设置 HTTP 客户端
func WithHTTPClient(c *http.Client) EngineOption {
	return func(o *engineOptions) {
		if c != nil {
			o.client = c
		}
	}
}

// WithClock 设置时钟
func WithClock(c clock.Clock) EngineOption {
	return func(o *engineOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithMetrics 设置 Prometheus 指标
func WithMetrics(m *metrics.FetchMetrics) EngineOption {
	return func(o *engineOptions) {
		o.metrics = m
	}
}

// WithBandwidth 设置按服务器的流量统计
func WithBandwidth(b *metrics.BandwidthCounter) EngineOption {
	return func(o *engineOptions) {
		o.bandwidth = b
	}
}
