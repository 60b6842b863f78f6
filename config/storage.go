package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// StorageConfig 存储配置
//
// 仅当缓存后端为 badger 时使用。数据目录结构：
//
//	${DataDir}/
//	└── concrnt.db/         # BadgerDB 主数据库
//	    ├── 000001.vlog
//	    ├── 000001.sst
//	    └── MANIFEST
type StorageConfig struct {
	// DataDir 数据目录路径
	// 默认值: "./data"
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// SyncWrites 每次写入同步到磁盘
	SyncWrites bool `json:"sync_writes" yaml:"sync_writes"`

	// GCInterval 值日志垃圾回收间隔，0 表示禁用
	// 默认值: 10m
	GCInterval Duration `json:"gc_interval" yaml:"gc_interval"`
}

// DefaultStorageConfig 返回默认的存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:    "./data",
		SyncWrites: false,
		GCInterval: Duration(10 * time.Minute),
	}
}

// Validate 验证存储配置的有效性
func (c StorageConfig) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("storage: data_dir cannot be empty")
	}
	if c.GCInterval < 0 {
		return fmt.Errorf("storage: gc_interval cannot be negative")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "concrnt.db")
}
