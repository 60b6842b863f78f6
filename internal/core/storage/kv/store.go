// Package kv 在存储引擎上划分命名空间
//
// 每个使用者持有一个前缀，键在写入引擎前加上前缀，读出时去掉。
// 当前只有持久缓存使用 c/ 前缀：
//
//	store := kv.New(eng, []byte("c/"))
//	store.Put([]byte("domain:example.com"), data) // 引擎中的键: c/domain:example.com
//
// 结构化值使用 CBOR 确定性编码，同一值总是得到相同字节。
package kv

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/dep2p/go-concrnt/internal/core/storage/engine"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	// 解码到 any 时使用字符串键的 map
	mapStringAny = reflect.TypeOf(map[string]any(nil))
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic("kv: CBOR 编码器初始化失败: " + err.Error())
	}
	if decMode, err = (cbor.DecOptions{
		DefaultMapType: mapStringAny,
	}).DecMode(); err != nil {
		panic("kv: CBOR 解码器初始化失败: " + err.Error())
	}
}

// Store 前缀命名空间
type Store struct {
	eng    engine.Engine
	prefix []byte
}

// New 返回 eng 上以 prefix 隔离的命名空间
func New(eng engine.Engine, prefix []byte) *Store {
	return &Store{eng: eng, prefix: append([]byte(nil), prefix...)}
}

func (s *Store) key(k []byte) []byte {
	out := make([]byte, 0, len(s.prefix)+len(k))
	return append(append(out, s.prefix...), k...)
}

// Get 读取 key，不存在时返回 engine.ErrNotFound
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.eng.Get(s.key(key))
}

// Put 写入 key
func (s *Store) Put(key, value []byte) error {
	return s.eng.Put(s.key(key), value)
}

// Delete 删除 key
func (s *Store) Delete(key []byte) error {
	return s.eng.Delete(s.key(key))
}

// Has 判断 key 是否存在
func (s *Store) Has(key []byte) (bool, error) {
	return s.eng.Has(s.key(key))
}

// GetCBOR 读取并解码到 v
//
// 解码失败返回包装 engine.ErrCorrupted 的错误。
func (s *Store) GetCBOR(key []byte, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrCorrupted, err)
	}
	return nil
}

// PutCBOR 以确定性编码写入 v
func (s *Store) PutCBOR(key []byte, v any) error {
	data, err := encMode.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(key, data)
}

// PrefixScan 遍历 sub 前缀下的键值
//
// 回调收到的 key 不含 Store 前缀，返回 false 停止遍历。
func (s *Store) PrefixScan(sub []byte, fn func(key, value []byte) bool) error {
	n := len(s.prefix)
	return s.eng.Scan(s.key(sub), func(key, value []byte) bool {
		return fn(key[n:], value)
	})
}

// Keys 返回 sub 前缀下的全部键（已复制）
func (s *Store) Keys(sub []byte) ([][]byte, error) {
	var keys [][]byte
	err := s.PrefixScan(sub, func(key, _ []byte) bool {
		keys = append(keys, append([]byte(nil), key...))
		return true
	})
	return keys, err
}

// Count 统计 sub 前缀下的键数
func (s *Store) Count(sub []byte) (int64, error) {
	var n int64
	err := s.PrefixScan(sub, func(_, _ []byte) bool {
		n++
		return true
	})
	return n, err
}

// DeletePrefix 删除 sub 前缀下的全部键
func (s *Store) DeletePrefix(sub []byte) error {
	return s.eng.DeletePrefix(s.key(sub))
}
