// Package interfaces 定义 Concrnt 公共接口
//
// 本文件定义 KVS 接口，响应缓存的存储能力。
package interfaces

import (
	"context"
	"time"
)

// Entry 缓存条目
//
// Data 为 nil 表示记录过的"不存在"结果（负缓存），
// 与"没有条目"不同。Timestamp 为写入时刻。
type Entry struct {
	Data      []byte
	Timestamp time.Time
}

// Negative 是否为负缓存条目
func (e Entry) Negative() bool {
	return e.Data == nil
}

// Age 条目在 now 时刻的年龄
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// KVS 缓存存储接口
//
// 实现不要求淘汰策略；所有写入都以实现自身的时钟打时间戳。
type KVS interface {
	// Get 读取条目，ok 为 false 表示没有条目
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)

	// Set 写入条目，value 为 nil 表示记录负缓存
	Set(ctx context.Context, key string, value []byte) error

	// Invalidate 删除条目
	Invalidate(ctx context.Context, key string) error
}
