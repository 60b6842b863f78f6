package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/metrics"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
	"github.com/dep2p/go-concrnt/pkg/types"
)

var logger = log.Logger("core/fetch")

// janitorInterval 过期健康记录清理周期
const janitorInterval = 5 * time.Minute

var (
	// ErrClosed 引擎已关闭
	ErrClosed = errors.New("fetch: engine closed")

	// ErrNoHost 请求未指定服务器且没有默认服务器
	ErrNoHost = errors.New("fetch: no host")
)

// Request 原始请求
type Request struct {
	Method string
	Host   string // 空串使用默认服务器
	Path   string
	Header http.Header
	Body   []byte

	// Auth 附带认证头
	Auth bool

	// Timeout 0 使用配置的默认超时
	Timeout time.Duration
}

// Response 2xx 响应
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Engine 网络请求引擎
type Engine struct {
	cfg         config.FetchConfig
	cacheCfg    config.CacheConfig
	defaultHost string

	kvs       interfaces.KVS
	auth      interfaces.AuthProvider
	client    *http.Client
	clock     clock.Clock
	metrics   *metrics.FetchMetrics
	bandwidth *metrics.BandwidthCounter

	health   *healthTracker
	limiters *limiterSet
	group    singleflight.Group

	// 生命周期
	ctx     context.Context
	cancel  context.CancelFunc
	closeMu sync.RWMutex
	closed  bool
	bg      sync.WaitGroup
}

// New 创建引擎
//
// auth 为 nil 时所有请求匿名发出。
func New(cfg *config.Config, kvs interfaces.KVS, auth interfaces.AuthProvider, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if kvs == nil {
		return nil, errors.New("fetch: nil cache")
	}
	if err := cfg.Fetch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cache.Validate(); err != nil {
		return nil, err
	}

	o := applyEngineOptions(opts)
	defaultHost := cfg.Host
	if auth != nil && auth.Host() != "" {
		defaultHost = auth.Host()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:         cfg.Fetch,
		cacheCfg:    cfg.Cache,
		defaultHost: defaultHost,
		kvs:         kvs,
		auth:        auth,
		client:      o.client,
		clock:       o.clock,
		metrics:     o.metrics,
		bandwidth:   o.bandwidth,
		health:      newHealthTracker(cfg.Fetch, o.clock, o.metrics),
		limiters:    newLimiterSet(cfg.Fetch),
		ctx:         ctx,
		cancel:      cancel,
	}
	e.goBackground(e.janitor)

	logger.Debug("请求引擎已创建",
		"defaultHost", defaultHost,
		"timeout", cfg.Fetch.Timeout.Duration(),
		"rate", cfg.Fetch.RequestRate)
	return e, nil
}

// DefaultHost 返回默认服务器
func (e *Engine) DefaultHost() string {
	return e.defaultHost
}

// Auth 返回认证提供者，可能为 nil
func (e *Engine) Auth() interfaces.AuthProvider {
	return e.auth
}

// Bandwidth 返回流量统计，未配置时为 nil
func (e *Engine) Bandwidth() *metrics.BandwidthCounter {
	return e.bandwidth
}

func (e *Engine) hostOrDefault(host string) string {
	if host == "" {
		return e.defaultHost
	}
	return host
}

func (e *Engine) requestOptions(opts []Option) requestOptions {
	o := requestOptions{timeout: e.cfg.Timeout.Duration()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ============================================================================
//                              缓存请求
// ============================================================================

// FetchWithCache 带缓存的 GET 请求
//
// 返回 (nil, nil) 表示服务器确认资源不存在（404 或有效的负缓存）。
func (e *Engine) FetchWithCache(ctx context.Context, host, path, key string, opts ...Option) (json.RawMessage, error) {
	o := e.requestOptions(opts)
	host = e.hostOrDefault(host)

	var (
		entry  interfaces.Entry
		found  bool
		cached json.RawMessage
	)
	if o.mode != CacheNone {
		var err error
		entry, found, err = e.kvs.Get(ctx, key)
		if err != nil {
			logger.Warn("读取缓存失败", "key", key, "error", err)
			found = false
		}
	}

	if found {
		if !entry.Negative() {
			cached = entry.Data
			if o.express != nil {
				o.express(cached)
			}
		}

		if e.fresh(entry, o) {
			switch {
			case !entry.Negative():
				e.metrics.CacheLookup(metrics.CacheFresh)
				return cached, nil
			case o.mode != CacheBestEffort:
				e.metrics.CacheLookup(metrics.CacheNegative)
				return nil, nil
			case !e.health.available(host):
				// 服务器熔断中，负缓存仍然作数
				e.metrics.CacheLookup(metrics.CacheNegative)
				return nil, nil
			}
		}
	}

	if o.mode == CacheForce {
		if found {
			e.metrics.CacheLookup(metrics.CacheStale)
			return cached, nil
		}
		e.metrics.CacheLookup(metrics.CacheMiss)
		return nil, fmt.Errorf("%s: %w", key, types.ErrCacheMiss)
	}

	if cached != nil {
		e.metrics.CacheLookup(metrics.CacheStale)
		e.refresh(host, path, key, o)
		return cached, nil
	}

	e.metrics.CacheLookup(metrics.CacheMiss)
	return e.fetchShared(ctx, host, path, key, o)
}

// fresh 判断条目是否在有效期内，有效期为 0 表示永不过期
func (e *Engine) fresh(entry interfaces.Entry, o requestOptions) bool {
	ttl := e.cacheCfg.DefaultTTL.Duration()
	switch {
	case entry.Negative():
		ttl = e.cacheCfg.NegativeTTL.Duration()
	case o.hasTTL:
		ttl = o.ttl
	}
	if ttl == 0 {
		return true
	}
	return entry.Age(e.clock.Now()) < ttl
}

// refresh 在后台刷新过期条目，失败只记录日志
func (e *Engine) refresh(host, path, key string, o requestOptions) {
	started := e.goBackground(func(ctx context.Context) {
		if _, err := e.fetchShared(ctx, host, path, key, o); err != nil {
			logger.Debug("后台刷新失败", "key", key, "error", err)
		}
	})
	if !started {
		logger.Debug("引擎已关闭，跳过后台刷新", "key", key)
	}
}

// fetchShared 合并同一缓存键的并发请求
//
// 网络请求在引擎生命周期的上下文中执行，调用方取消只影响自己的等待。
func (e *Engine) fetchShared(ctx context.Context, host, path, key string, o requestOptions) (json.RawMessage, error) {
	ch := e.group.DoChan(key, func() (interface{}, error) {
		if !e.track() {
			return nil, ErrClosed
		}
		defer e.bg.Done()
		return e.fetchAndStore(host, path, key, o)
	})

	select {
	case res := <-ch:
		if res.Shared {
			e.metrics.Shared()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	case <-ctx.Done():
		return nil, types.WaitError(ctx, host)
	}
}

// fetchAndStore 执行网络请求并更新缓存
func (e *Engine) fetchAndStore(host, path, key string, o requestOptions) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(e.ctx, o.timeout)
	defer cancel()

	body, err := e.get(ctx, host, path, !o.noAuth, o.timeout)
	if types.IsNotFound(err) {
		if err := e.kvs.Set(ctx, key, nil); err != nil {
			logger.Warn("写入负缓存失败", "key", key, "error", err)
		}
		logger.Debug("资源不存在，记录负缓存", "host", host, "key", key)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if o.express != nil {
		o.express(body)
	}
	if o.mode != CacheNegativeOnly {
		if err := e.kvs.Set(ctx, key, body); err != nil {
			logger.Warn("写入缓存失败", "key", key, "error", err)
		}
	}
	return body, nil
}

// Invalidate 删除缓存条目
func (e *Engine) Invalidate(ctx context.Context, key string) error {
	return e.kvs.Invalidate(ctx, key)
}

// ============================================================================
//                              直接请求
// ============================================================================

// FetchHost 不带认证、不走缓存的 GET 请求
//
// 404 返回 ErrNotFound。
func (e *Engine) FetchHost(ctx context.Context, host, path string, opts ...Option) (json.RawMessage, error) {
	o := e.requestOptions(opts)
	return e.get(ctx, e.hostOrDefault(host), path, false, o.timeout)
}

// FetchWithCredential 附带认证头、不走缓存的 GET 请求
func (e *Engine) FetchWithCredential(ctx context.Context, host, path string, opts ...Option) (json.RawMessage, error) {
	o := e.requestOptions(opts)
	return e.get(ctx, e.hostOrDefault(host), path, !o.noAuth, o.timeout)
}

// get 执行 GET 请求并校验响应为 JSON
func (e *Engine) get(ctx context.Context, host, path string, auth bool, timeout time.Duration) (json.RawMessage, error) {
	resp, err := e.Do(ctx, Request{
		Method:  http.MethodGet,
		Host:    host,
		Path:    path,
		Auth:    auth,
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	if !json.Valid(resp.Body) {
		return nil, types.NewFetchError(types.ErrInvalidDocument, host, errors.New("response is not json"))
	}
	return json.RawMessage(resp.Body), nil
}

// Do 发送请求
//
// 经过熔断检查与限速，非 2xx 响应转换为对应类别的 *types.FetchError。
func (e *Engine) Do(ctx context.Context, req Request) (*Response, error) {
	host := e.hostOrDefault(req.Host)
	if host == "" {
		return nil, ErrNoHost
	}
	if e.isClosed() {
		return nil, ErrClosed
	}
	if !e.health.available(host) {
		e.metrics.Request(host, metrics.OutcomeShortCircuit)
		return nil, types.OfflineError(host)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.cfg.Timeout.Duration()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if l := e.limiters.get(host); l != nil {
		if err := l.Wait(ctx); err != nil {
			return nil, types.NewFetchError(transportKind(ctx, err), host, err)
		}
	}

	httpReq, err := e.newRequest(ctx, host, req)
	if err != nil {
		return nil, types.NewFetchError(types.ErrTransport, host, err)
	}

	start := e.clock.Now()
	resp, err := e.client.Do(httpReq)
	e.metrics.ObserveLatency(host, e.clock.Since(start))
	e.bandwidth.LogSent(host, int64(len(req.Body)))
	if err != nil {
		return nil, e.fail(ctx, host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	e.bandwidth.LogRecv(host, int64(len(body)))
	if err != nil {
		return nil, e.fail(ctx, host, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := statusKind(resp.StatusCode)
		if kind == types.ErrServerOffline {
			e.health.recordFailure(host, resp.Status)
		}
		ferr := types.StatusError(kind, host, resp.StatusCode, truncateBody(body))
		e.metrics.Request(host, outcome(ferr))
		return nil, ferr
	}

	e.health.recordSuccess(host)
	e.metrics.Request(host, metrics.OutcomeOK)
	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}

func (e *Engine) newRequest(ctx context.Context, host string, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	url := e.cfg.Scheme + "://" + host + req.Path
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Auth {
		for k, v := range e.authHeaders(ctx, host) {
			httpReq.Header.Set(k, v)
		}
	}
	return httpReq, nil
}

// authHeaders 获取认证头，失败时匿名请求
func (e *Engine) authHeaders(ctx context.Context, host string) map[string]string {
	if e.auth == nil {
		return nil
	}
	headers, err := e.auth.Headers(ctx, host)
	if err != nil {
		logger.Warn("获取认证头失败，改为匿名请求", "host", host, "error", err)
		return nil
	}
	return headers
}

// fail 归类传输错误，不可达时计入熔断
func (e *Engine) fail(ctx context.Context, host string, err error) error {
	kind := transportKind(ctx, err)
	if kind == types.ErrServerOffline {
		e.health.recordFailure(host, err.Error())
	}
	ferr := types.NewFetchError(kind, host, err)
	e.metrics.Request(host, outcome(ferr))
	return ferr
}

// ============================================================================
//                              服务器状态
// ============================================================================

// IsHostOnline 服务器是否在熔断窗口外
func (e *Engine) IsHostOnline(host string) bool {
	return e.health.available(e.hostOrDefault(host))
}

// HostHealth 返回服务器健康状态
func (e *Engine) HostHealth(host string) HostHealth {
	return e.health.snapshot(e.hostOrDefault(host))
}

// ConfirmOnline 记录服务器刚被确认在线
func (e *Engine) ConfirmOnline(host string) {
	e.health.confirmOnline(e.hostOrDefault(host))
}

// RecentlyOnline 服务器是否在探测窗口内被确认在线
func (e *Engine) RecentlyOnline(host string) bool {
	return e.health.recentlyOnline(e.hostOrDefault(host))
}

// ForgetOnline 清除在线确认
func (e *Engine) ForgetOnline(host string) {
	e.health.forgetOnline(e.hostOrDefault(host))
}

// ============================================================================
//                              生命周期
// ============================================================================

// track 登记一个受 Close 等待的任务，引擎已关闭时返回 false
//
// 返回 true 时调用方结束后必须调用 e.bg.Done()。
func (e *Engine) track() bool {
	e.closeMu.RLock()
	defer e.closeMu.RUnlock()
	if e.closed {
		return false
	}
	e.bg.Add(1)
	return true
}

// goBackground 启动受 Close 管理的后台任务，引擎已关闭时返回 false
func (e *Engine) goBackground(fn func(ctx context.Context)) bool {
	if !e.track() {
		return false
	}
	go func() {
		defer e.bg.Done()
		fn(e.ctx)
	}()
	return true
}

func (e *Engine) isClosed() bool {
	e.closeMu.RLock()
	defer e.closeMu.RUnlock()
	return e.closed
}

// janitor 定期清理过期的健康记录与空闲流量统计
func (e *Engine) janitor(ctx context.Context) {
	ticker := e.clock.Ticker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := e.health.cleanup()
			trimmed := e.bandwidth.TrimIdle(e.clock.Now().Add(-healthExpiry))
			if removed > 0 || trimmed > 0 {
				logger.Debug("清理过期记录", "health", removed, "bandwidth", trimmed)
			}
		}
	}
}

// Close 取消进行中的请求与后台刷新并等待其退出
//
// 返回后不会再有请求写入缓存。
func (e *Engine) Close() error {
	e.closeMu.Lock()
	if e.closed {
		e.closeMu.Unlock()
		return nil
	}
	e.closed = true
	e.closeMu.Unlock()

	e.cancel()
	e.bg.Wait()
	logger.Debug("请求引擎已关闭")
	return nil
}
