package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// hostCounter 单个服务器的收发统计
type hostCounter struct {
	in      atomic.Int64
	out     atomic.Int64
	inRate  *RateMeter
	outRate *RateMeter
}

func (h *hostCounter) stats() Stats {
	return Stats{
		TotalIn:  h.in.Load(),
		TotalOut: h.out.Load(),
		RateIn:   h.inRate.Rate(),
		RateOut:  h.outRate.Rate(),
	}
}

func (h *hostCounter) lastActive() time.Time {
	in, out := h.inRate.LastUpdate(), h.outRate.LastUpdate()
	if in.After(out) {
		return in
	}
	return out
}

// BandwidthCounter 带宽计数器
//
// 按服务器域名跟踪请求体（出站）与响应体（入站）的字节数。
type BandwidthCounter struct {
	clock clock.Clock
	total *hostCounter

	mu    sync.RWMutex
	hosts map[string]*hostCounter
}

// NewBandwidthCounter 创建新的 BandwidthCounter
func NewBandwidthCounter(opts ...BandwidthOption) *BandwidthCounter {
	bwc := &BandwidthCounter{
		clock: clock.New(),
		hosts: make(map[string]*hostCounter),
	}
	for _, opt := range opts {
		opt(bwc)
	}
	bwc.total = bwc.newHostCounter()
	return bwc
}

// BandwidthOption 计数器选项
type BandwidthOption func(*BandwidthCounter)

// WithBandwidthClock 设置时钟
func WithBandwidthClock(c clock.Clock) BandwidthOption {
	return func(bwc *BandwidthCounter) {
		if c != nil {
			bwc.clock = c
		}
	}
}

func (bwc *BandwidthCounter) newHostCounter() *hostCounter {
	return &hostCounter{
		inRate:  NewRateMeter(bwc.clock),
		outRate: NewRateMeter(bwc.clock),
	}
}

func (bwc *BandwidthCounter) host(host string) *hostCounter {
	bwc.mu.RLock()
	h := bwc.hosts[host]
	bwc.mu.RUnlock()
	if h != nil {
		return h
	}

	bwc.mu.Lock()
	defer bwc.mu.Unlock()
	if h = bwc.hosts[host]; h == nil {
		h = bwc.newHostCounter()
		bwc.hosts[host] = h
	}
	return h
}

// LogSent 记录发往 host 的字节数
func (bwc *BandwidthCounter) LogSent(host string, size int64) {
	if bwc == nil || size <= 0 {
		return
	}
	bwc.total.out.Add(size)
	bwc.total.outRate.Add(size)
	h := bwc.host(host)
	h.out.Add(size)
	h.outRate.Add(size)
}

// LogRecv 记录从 host 收到的字节数
func (bwc *BandwidthCounter) LogRecv(host string, size int64) {
	if bwc == nil || size <= 0 {
		return
	}
	bwc.total.in.Add(size)
	bwc.total.inRate.Add(size)
	h := bwc.host(host)
	h.in.Add(size)
	h.inRate.Add(size)
}

// ForHost 返回单个服务器的统计
func (bwc *BandwidthCounter) ForHost(host string) Stats {
	if bwc == nil {
		return Stats{}
	}
	bwc.mu.RLock()
	h := bwc.hosts[host]
	bwc.mu.RUnlock()
	if h == nil {
		return Stats{}
	}
	return h.stats()
}

// Totals 返回全部服务器的合计
func (bwc *BandwidthCounter) Totals() Stats {
	if bwc == nil {
		return Stats{}
	}
	return bwc.total.stats()
}

// ByHost 返回所有服务器的统计
func (bwc *BandwidthCounter) ByHost() map[string]Stats {
	if bwc == nil {
		return nil
	}
	bwc.mu.RLock()
	defer bwc.mu.RUnlock()

	out := make(map[string]Stats, len(bwc.hosts))
	for host, h := range bwc.hosts {
		out[host] = h.stats()
	}
	return out
}

// Reset 重置所有统计
func (bwc *BandwidthCounter) Reset() {
	if bwc == nil {
		return
	}
	bwc.mu.Lock()
	bwc.hosts = make(map[string]*hostCounter)
	bwc.mu.Unlock()

	bwc.total.in.Store(0)
	bwc.total.out.Store(0)
	bwc.total.inRate.Reset()
	bwc.total.outRate.Reset()
}

// TrimIdle 清理 since 之后没有流量的服务器
func (bwc *BandwidthCounter) TrimIdle(since time.Time) int {
	if bwc == nil {
		return 0
	}
	bwc.mu.Lock()
	defer bwc.mu.Unlock()

	trimmed := 0
	for host, h := range bwc.hosts {
		if h.lastActive().Before(since) {
			delete(bwc.hosts, host)
			trimmed++
		}
	}
	return trimmed
}
