package fetch

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/metrics"
)

// healthExpiry 失败记录在最后一次失败后保留的时间
const healthExpiry = 30 * time.Minute

// healthEntry 服务器失败记录
type healthEntry struct {
	failures    int       // 连续失败次数
	nextRetry   time.Time // 窗口结束时间
	lastFailure time.Time // 最后一次失败时间
	lastError   string    // 最后一次错误
}

// HostHealth 服务器健康状态快照
type HostHealth struct {
	Failures    int
	LastFailure time.Time
	NextRetry   time.Time
	LastError   string
}

// Available 在 now 时刻是否允许请求
func (h HostHealth) Available(now time.Time) bool {
	return h.Failures == 0 || !now.Before(h.NextRetry)
}

// healthTracker 按服务器记录失败与在线确认
type healthTracker struct {
	cfg     config.FetchConfig
	clock   clock.Clock
	metrics *metrics.FetchMetrics

	mu      sync.Mutex
	entries map[string]*healthEntry
	online  map[string]time.Time // host -> 最近确认在线时间
}

func newHealthTracker(cfg config.FetchConfig, clk clock.Clock, m *metrics.FetchMetrics) *healthTracker {
	return &healthTracker{
		cfg:     cfg,
		clock:   clk,
		metrics: m,
		entries: make(map[string]*healthEntry),
		online:  make(map[string]time.Time),
	}
}

// window 计算 failures 次失败后的退避窗口
func (t *healthTracker) window(failures int) time.Duration {
	exp := failures
	if exp > t.cfg.BackoffMaxExponent {
		exp = t.cfg.BackoffMaxExponent
	}
	return time.Duration(float64(t.cfg.BackoffBase.Duration()) * math.Pow(t.cfg.BackoffFactor, float64(exp)))
}

// available 检查服务器是否在退避窗口外
func (t *healthTracker) available(host string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[host]
	if !ok {
		return true
	}
	return !t.clock.Now().Before(entry.nextRetry)
}

// recordFailure 记录一次离线类失败
func (t *healthTracker) recordFailure(host string, errStr string) {
	now := t.clock.Now()

	t.mu.Lock()
	entry, ok := t.entries[host]
	if !ok {
		entry = &healthEntry{}
		t.entries[host] = entry
	}
	entry.failures++
	entry.lastFailure = now
	entry.lastError = errStr
	backoff := t.window(entry.failures)
	entry.nextRetry = now.Add(backoff)
	failures := entry.failures
	delete(t.online, host)
	t.mu.Unlock()

	t.metrics.CircuitOpen(host)

	// 只在首次失败或达到特定阈值时输出日志
	if failures == 1 || failures == 5 || failures%20 == 0 {
		logger.Info("服务器标记为离线",
			"host", host,
			"failures", failures,
			"backoff", backoff,
			"error", errStr)
	}
}

// recordSuccess 清除失败记录
func (t *healthTracker) recordSuccess(host string) {
	t.mu.Lock()
	entry, ok := t.entries[host]
	delete(t.entries, host)
	t.mu.Unlock()

	if ok && entry.failures > 0 {
		logger.Info("服务器恢复在线", "host", host, "previousFailures", entry.failures)
	}
}

// snapshot 返回服务器健康状态
func (t *healthTracker) snapshot(host string) HostHealth {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[host]
	if !ok {
		return HostHealth{}
	}
	return HostHealth{
		Failures:    entry.failures,
		LastFailure: entry.lastFailure,
		NextRetry:   entry.nextRetry,
		LastError:   entry.lastError,
	}
}

// confirmOnline 记录服务器刚被确认在线
func (t *healthTracker) confirmOnline(host string) {
	t.mu.Lock()
	t.online[host] = t.clock.Now()
	t.mu.Unlock()
}

// recentlyOnline 服务器是否在探测窗口内被确认在线
func (t *healthTracker) recentlyOnline(host string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	at, ok := t.online[host]
	if !ok {
		return false
	}
	return t.clock.Since(at) < t.cfg.OnlineProbeWindow.Duration()
}

// forgetOnline 清除在线确认
func (t *healthTracker) forgetOnline(host string) {
	t.mu.Lock()
	delete(t.online, host)
	t.mu.Unlock()
}

// cleanup 清理过期的失败记录与在线确认
func (t *healthTracker) cleanup() int {
	now := t.clock.Now()
	removed := 0

	t.mu.Lock()
	defer t.mu.Unlock()

	for host, entry := range t.entries {
		if now.Sub(entry.lastFailure) > healthExpiry {
			delete(t.entries, host)
			removed++
		}
	}
	for host, at := range t.online {
		if now.Sub(at) >= t.cfg.OnlineProbeWindow.Duration() {
			delete(t.online, host)
		}
	}
	return removed
}

// ============================================================================
//                              按服务器限速
// ============================================================================

// limiterSet 按服务器的令牌桶，rate 为 0 时不限速
type limiterSet struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterSet(cfg config.FetchConfig) *limiterSet {
	return &limiterSet{
		limit:    rate.Limit(cfg.RequestRate),
		burst:    cfg.RequestBurst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// get 返回服务器的限速器，不限速时返回 nil
func (s *limiterSet) get(host string) *rate.Limiter {
	if s.limit <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[host]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[host] = l
	}
	return l
}

// len 返回已创建的限速器数量
func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
