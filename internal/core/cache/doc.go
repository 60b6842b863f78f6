// Package cache 实现响应缓存的存储后端
//
// 三种后端都实现 interfaces.KVS：
//
//   - Memory:     进程内 map，无容量上限
//   - LRU:        进程内有界 LRU，超出容量时淘汰最久未用的条目
//   - Persistent: 基于 storage/kv 的持久化缓存，CBOR 编码，大条目 zstd 压缩
//
// 条目的时间戳由后端在写入时以自身时钟生成，调用方无法指定。
// 缓存不做过期淘汰，新鲜度由 fetch 引擎在读取时判断。
package cache

import (
	"github.com/benbjohnson/clock"
)

// Option 缓存选项
type Option func(*options)

type options struct {
	clock clock.Clock
}

func defaultOptions() options {
	return options{clock: clock.New()}
}

// WithClock 设置时钟，测试中使用 clock.NewMock()
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// cloneBytes 复制字节切片，保留 nil 与空切片的区别
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
