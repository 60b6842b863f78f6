// Package engine 定义存储引擎的内部接口
//
// 持久缓存只需要按键读写与按前缀遍历，
// 引擎之上的命名空间隔离由 kv 包完成。
//
// # 线程安全
//
// 所有接口实现必须保证线程安全。
package engine

// Engine 存储引擎接口
type Engine interface {
	// Get 获取键对应的值，不存在时返回 ErrNotFound
	Get(key []byte) ([]byte, error)

	// Put 写入键值对
	Put(key, value []byte) error

	// Delete 删除键，键不存在不视为错误
	Delete(key []byte) error

	// Has 检查键是否存在
	Has(key []byte) (bool, error)

	// Scan 按前缀遍历键值对
	//
	// fn 返回 false 时停止遍历。传入 fn 的切片仅在回调内有效。
	Scan(prefix []byte, fn func(key, value []byte) bool) error

	// DeletePrefix 删除具有指定前缀的所有键
	DeletePrefix(prefix []byte) error

	// Start 启动后台任务（GC 等）
	Start() error

	// Close 关闭引擎，多次调用是安全的
	Close() error
}
