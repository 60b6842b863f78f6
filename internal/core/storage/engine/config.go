package engine

import (
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
)

// Config 存储引擎配置
//
// 引擎只承载持久缓存，记录小且可重建，默认值按客户端进程的内存预算选取。
type Config struct {
	// Path 数据库目录（必需）
	Path string

	// SyncWrites 每次写入都落盘
	SyncWrites bool

	// MemTableSize 内存表大小（字节）
	MemTableSize int64

	// BlockCacheSize 块缓存大小（字节）
	BlockCacheSize int64

	// ValueLogFileSize 单个值日志文件大小（字节）
	ValueLogFileSize int64

	// GCInterval 值日志回收间隔，0 表示不回收
	GCInterval time.Duration

	// GCDiscardRatio 文件中可丢弃数据超过该比例才回收
	GCDiscardRatio float64

	// Clock 回收定时器使用的时钟，nil 为系统时钟
	Clock clock.Clock

	// Logger badger 内部日志，nil 时丢弃
	Logger Logger
}

// Logger badger 日志接口
type Logger interface {
	Errorf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// DefaultConfig 返回 path 处数据库的默认配置
func DefaultConfig(path string) *Config {
	return &Config{
		Path:             path,
		MemTableSize:     8 << 20,
		BlockCacheSize:   16 << 20,
		ValueLogFileSize: 64 << 20,
		GCInterval:       10 * time.Minute,
		GCDiscardRatio:   0.5,
	}
}

// Validate 检查配置，返回 ErrInvalidConfig 表示不可用
func (c *Config) Validate() error {
	switch {
	case c.Path == "":
		return ErrInvalidConfig
	case c.MemTableSize < 1<<20, c.ValueLogFileSize < 1<<20:
		return ErrInvalidConfig
	case c.GCInterval < 0:
		return ErrInvalidConfig
	case c.GCDiscardRatio <= 0 || c.GCDiscardRatio >= 1:
		return ErrInvalidConfig
	}
	return nil
}

// Prepare 规范化路径、补齐时钟并创建目录，引擎打开前调用
func (c *Config) Prepare() error {
	abs, err := filepath.Abs(c.Path)
	if err != nil {
		return err
	}
	c.Path = abs
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return os.MkdirAll(abs, 0o700)
}
