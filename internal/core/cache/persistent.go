package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/klauspost/compress/zstd"

	"github.com/dep2p/go-concrnt/internal/core/storage/engine"
	"github.com/dep2p/go-concrnt/internal/core/storage/kv"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// KeyPrefix 持久缓存在存储引擎中的键前缀
var KeyPrefix = []byte("c/")

// record 持久化的缓存条目
type record struct {
	Timestamp  int64  `cbor:"1,keyasint"` // Unix 纳秒
	Negative   bool   `cbor:"2,keyasint,omitempty"`
	Compressed bool   `cbor:"3,keyasint,omitempty"`
	Data       []byte `cbor:"4,keyasint,omitempty"`
}

// Persistent 持久化缓存
//
// 每个条目以 CBOR 记录保存在 kv.Store 中，
// Data 长度超过 threshold 时以 zstd 压缩。threshold 为 0 时不压缩。
type Persistent struct {
	store     *kv.Store
	clock     clock.Clock
	threshold int

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewPersistent 在存储引擎上创建持久缓存
func NewPersistent(eng engine.Engine, threshold int, opts ...Option) (*Persistent, error) {
	if eng == nil {
		return nil, engine.ErrInvalidConfig
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}

	o := applyOptions(opts)
	return &Persistent{
		store:     kv.New(eng, KeyPrefix),
		clock:     o.clock,
		threshold: threshold,
		encoder:   enc,
		decoder:   dec,
	}, nil
}

// Get 读取条目
func (p *Persistent) Get(_ context.Context, key string) (interfaces.Entry, bool, error) {
	var rec record
	if err := p.store.GetCBOR([]byte(key), &rec); err != nil {
		if engine.IsNotFound(err) {
			return interfaces.Entry{}, false, nil
		}
		if errors.Is(err, engine.ErrCorrupted) {
			// 损坏的条目按未缓存处理，下次写入覆盖
			logger.Warn("持久缓存条目损坏", "key", key)
			_ = p.store.Delete([]byte(key))
			return interfaces.Entry{}, false, nil
		}
		return interfaces.Entry{}, false, err
	}

	entry := interfaces.Entry{Timestamp: time.Unix(0, rec.Timestamp)}
	if rec.Negative {
		return entry, true, nil
	}

	data := rec.Data
	if rec.Compressed {
		var err error
		data, err = p.decoder.DecodeAll(rec.Data, nil)
		if err != nil {
			return interfaces.Entry{}, false, fmt.Errorf("%w: %v", engine.ErrCorrupted, err)
		}
	}
	if data == nil {
		data = []byte{}
	}
	entry.Data = data
	return entry, true, nil
}

// Set 写入条目
func (p *Persistent) Set(_ context.Context, key string, value []byte) error {
	rec := record{Timestamp: p.clock.Now().UnixNano()}
	switch {
	case value == nil:
		rec.Negative = true
	case p.threshold > 0 && len(value) > p.threshold:
		rec.Compressed = true
		rec.Data = p.encoder.EncodeAll(value, nil)
	default:
		rec.Data = value
	}
	return p.store.PutCBOR([]byte(key), rec)
}

// Invalidate 删除条目
func (p *Persistent) Invalidate(_ context.Context, key string) error {
	return p.store.Delete([]byte(key))
}

// Purge 删除全部缓存条目
func (p *Persistent) Purge() error {
	return p.store.DeletePrefix(nil)
}

// Len 条目数量
func (p *Persistent) Len() (int64, error) {
	return p.store.Count(nil)
}

// Close 释放压缩器，不关闭存储引擎
func (p *Persistent) Close() error {
	p.decoder.Close()
	return p.encoder.Close()
}

var _ interfaces.KVS = (*Persistent)(nil)
