// Package interfaces 定义 Concrnt 公共接口
//
// 本文件定义 SecureStore 接口，保存序列化后的身份数据。
package interfaces

import "context"

// SecureStore 安全存储
//
// 值为不透明字符串；实现负责静态加密。
type SecureStore interface {
	// Get 读取值，ok 为 false 表示不存在
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set 写入值
	Set(ctx context.Context, key, value string) error

	// Delete 删除值，不存在时不报错
	Delete(ctx context.Context, key string) error
}
