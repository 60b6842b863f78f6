package config

import (
	"fmt"
	"time"
)

// 缓存后端
const (
	// CacheBackendMemory 进程内 map，无容量上限
	CacheBackendMemory = "memory"

	// CacheBackendLRU 进程内有界 LRU
	CacheBackendLRU = "lru"

	// CacheBackendBadger 持久化到 badger
	CacheBackendBadger = "badger"
)

// CacheConfig 响应缓存配置
type CacheConfig struct {
	// Backend 缓存后端: memory / lru / badger
	// 默认值: "memory"
	Backend string `json:"backend" yaml:"backend"`

	// DefaultTTL 正向结果的默认有效期，0 表示永不过期
	DefaultTTL Duration `json:"default_ttl" yaml:"default_ttl"`

	// NegativeTTL 404 结果的有效期
	// 默认值: 300s
	// 单位刻意取秒而非毫秒：按毫秒解释的 300 会让 404 几乎立即失效，
	// 对不存在的资源反复请求。需要毫秒语义时设为 300ms。
	NegativeTTL Duration `json:"negative_ttl" yaml:"negative_ttl"`

	// LRUSize LRU 后端容量
	// 默认值: 4096
	LRUSize int `json:"lru_size" yaml:"lru_size"`

	// CompressThreshold badger 后端压缩阈值（字节），0 表示不压缩
	// 默认值: 1024
	CompressThreshold int `json:"compress_threshold" yaml:"compress_threshold"`
}

// DefaultCacheConfig 返回默认缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Backend:           CacheBackendMemory,
		DefaultTTL:        0,
		NegativeTTL:       Duration(300 * time.Second), // 刻意取秒，见字段注释
		LRUSize:           4096,
		CompressThreshold: 1024,
	}
}

// Validate 验证缓存配置
func (c CacheConfig) Validate() error {
	switch c.Backend {
	case CacheBackendMemory, CacheBackendLRU, CacheBackendBadger:
	default:
		return fmt.Errorf("cache: unknown backend %q", c.Backend)
	}
	if c.DefaultTTL < 0 {
		return fmt.Errorf("cache: default_ttl cannot be negative")
	}
	if c.NegativeTTL < 0 {
		return fmt.Errorf("cache: negative_ttl cannot be negative")
	}
	if c.Backend == CacheBackendLRU && c.LRUSize < 1 {
		return fmt.Errorf("cache: lru_size must be positive")
	}
	if c.CompressThreshold < 0 {
		return fmt.Errorf("cache: compress_threshold cannot be negative")
	}
	return nil
}

// WithBackend 设置缓存后端
func (c CacheConfig) WithBackend(backend string) CacheConfig {
	c.Backend = backend
	return c
}

// WithDefaultTTL 设置默认有效期
func (c CacheConfig) WithDefaultTTL(d time.Duration) CacheConfig {
	c.DefaultTTL = Duration(d)
	return c
}
