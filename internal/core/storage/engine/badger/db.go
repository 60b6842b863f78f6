// Package badger 基于 BadgerDB 实现 engine.Engine
//
//	db, err := badger.New(engine.DefaultConfig(dir))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
package badger

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-concrnt/internal/core/storage/engine"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
)

var logger = log.Logger("storage/badger")

// Engine BadgerDB 存储引擎
type Engine struct {
	db  *badger.DB
	cfg engine.Config

	closed  atomic.Bool
	started atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New 打开 cfg.Path 处的数据库
//
// cfg 会被复制，调用后修改不影响引擎。
func New(cfg *engine.Config) (*Engine, error) {
	if cfg == nil {
		return nil, engine.ErrInvalidConfig
	}
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.Prepare(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(c.Path).
		WithSyncWrites(c.SyncWrites).
		WithNumVersionsToKeep(1).
		WithMemTableSize(c.MemTableSize).
		WithBlockCacheSize(c.BlockCacheSize).
		WithValueLogFileSize(c.ValueLogFileSize).
		WithLogger(nil)
	if c.Logger != nil {
		opts = opts.WithLogger(c.Logger)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	return &Engine{db: db, cfg: c, stop: make(chan struct{})}, nil
}

// Start 启动值日志回收，重复调用无效果
func (e *Engine) Start() error {
	if e.closed.Load() {
		return engine.ErrClosed
	}
	if e.cfg.GCInterval == 0 || e.started.Swap(true) {
		return nil
	}

	ticker := e.cfg.Clock.Ticker(e.cfg.GCInterval)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-e.stop:
				return
			case <-ticker.C:
				e.collect()
			}
		}
	}()
	return nil
}

// collect 反复回收直到没有可回收的文件
func (e *Engine) collect() {
	rounds := 0
	for !e.closed.Load() && e.db.RunValueLogGC(e.cfg.GCDiscardRatio) == nil {
		rounds++
	}
	if rounds > 0 {
		lsm, vlog := e.db.Size()
		logger.Debug("值日志回收完成", "rounds", rounds, "lsm", lsm, "vlog", vlog)
	}
}

func (e *Engine) view(fn func(txn *badger.Txn) error) error {
	if e.closed.Load() {
		return engine.ErrClosed
	}
	return translate(e.db.View(fn))
}

func (e *Engine) update(key []byte, fn func(txn *badger.Txn) error) error {
	if e.closed.Load() {
		return engine.ErrClosed
	}
	if len(key) == 0 {
		return engine.ErrEmptyKey
	}
	return translate(e.db.Update(fn))
}

// Get 读取 key，不存在时返回 engine.ErrNotFound
func (e *Engine) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, engine.ErrEmptyKey
	}
	var out []byte
	err := e.view(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

// Put 写入 key
func (e *Engine) Put(key, value []byte) error {
	return e.update(key, func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete 删除 key
func (e *Engine) Delete(key []byte) error {
	return e.update(key, func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Has 判断 key 是否存在，不读取值
func (e *Engine) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, engine.ErrEmptyKey
	}
	err := e.view(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if errors.Is(err, engine.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Scan 按前缀遍历
func (e *Engine) Scan(prefix []byte, fn func(key, value []byte) bool) error {
	return e.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			more := true
			if err := item.Value(func(val []byte) error {
				more = fn(item.Key(), val)
				return nil
			}); err != nil {
				return err
			}
			if !more {
				break
			}
		}
		return nil
	})
}

// DeletePrefix 删除前缀下的全部键，空前缀清空数据库
func (e *Engine) DeletePrefix(prefix []byte) error {
	if e.closed.Load() {
		return engine.ErrClosed
	}
	if len(prefix) == 0 {
		return e.db.DropAll()
	}
	return e.db.DropPrefix(prefix)
}

// Close 停止回收并关闭数据库，可重复调用
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	close(e.stop)
	e.wg.Wait()
	return e.db.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return engine.ErrNotFound
	case errors.Is(err, badger.ErrEmptyKey):
		return engine.ErrEmptyKey
	}
	return err
}

var _ engine.Engine = (*Engine)(nil)
