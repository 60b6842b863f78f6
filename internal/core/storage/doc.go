// Package storage 提供持久化存储服务
//
// Storage 模块基于 BadgerDB 实现，只在缓存后端为 badger 时装配：
//
//	┌──────────────────────────────┐
//	│  cache.Persistent            │
//	└──────────────────────────────┘
//	              │
//	              ▼
//	┌──────────────────────────────┐
//	│  kv.Store   带前缀隔离的 KV   │
//	└──────────────────────────────┘
//	              │
//	              ▼
//	┌──────────────────────────────┐
//	│  engine/badger               │
//	└──────────────────────────────┘
//
// 数据库位于 ${storage.data_dir}/concrnt.db。
package storage
