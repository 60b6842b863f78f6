// Package securestore 提供 interfaces.SecureStore 的参考实现
//
//   - Memory: 进程内保存，用于测试与访客会话
//   - File:   age 口令加密的单文件存储，用于命令行
package securestore

import (
	"context"
	"sync"

	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// Memory 进程内安全存储
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory 创建内存存储
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get 读取值
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set 写入值
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

// Delete 删除值
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

var _ interfaces.SecureStore = (*Memory)(nil)
