package cache

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// Memory 进程内缓存
type Memory struct {
	mu      sync.RWMutex
	entries map[string]interfaces.Entry
	clock   clock.Clock
}

// NewMemory 创建内存缓存
func NewMemory(opts ...Option) *Memory {
	o := applyOptions(opts)
	return &Memory{
		entries: make(map[string]interfaces.Entry),
		clock:   o.clock,
	}
}

// Get 读取条目
func (m *Memory) Get(_ context.Context, key string) (interfaces.Entry, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return interfaces.Entry{}, false, nil
	}
	return interfaces.Entry{Data: cloneBytes(e.Data), Timestamp: e.Timestamp}, true, nil
}

// Set 写入条目
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	e := interfaces.Entry{Data: cloneBytes(value), Timestamp: m.clock.Now()}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Invalidate 删除条目
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len 条目数量
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ interfaces.KVS = (*Memory)(nil)
