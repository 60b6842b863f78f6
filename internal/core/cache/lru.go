package cache

import (
	"context"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// LRU 有界内存缓存
type LRU struct {
	cache *lru.Cache[string, interfaces.Entry]
	clock clock.Clock
}

// NewLRU 创建容量为 size 的 LRU 缓存
func NewLRU(size int, opts ...Option) (*LRU, error) {
	c, err := lru.New[string, interfaces.Entry](size)
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	return &LRU{cache: c, clock: o.clock}, nil
}

// Get 读取条目
func (l *LRU) Get(_ context.Context, key string) (interfaces.Entry, bool, error) {
	e, ok := l.cache.Get(key)
	if !ok {
		return interfaces.Entry{}, false, nil
	}
	return interfaces.Entry{Data: cloneBytes(e.Data), Timestamp: e.Timestamp}, true, nil
}

// Set 写入条目
func (l *LRU) Set(_ context.Context, key string, value []byte) error {
	if evicted := l.cache.Add(key, interfaces.Entry{Data: cloneBytes(value), Timestamp: l.clock.Now()}); evicted {
		logger.Debug("LRU 缓存淘汰条目", "size", l.cache.Len())
	}
	return nil
}

// Invalidate 删除条目
func (l *LRU) Invalidate(_ context.Context, key string) error {
	l.cache.Remove(key)
	return nil
}

// Len 条目数量
func (l *LRU) Len() int {
	return l.cache.Len()
}

var _ interfaces.KVS = (*LRU)(nil)
