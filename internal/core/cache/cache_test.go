package cache

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/storage/engine"
	"github.com/dep2p/go-concrnt/internal/core/storage/engine/badger"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

func testEngine(t *testing.T) engine.Engine {
	t.Helper()
	eng, err := badger.New(engine.DefaultConfig(filepath.Join(t.TempDir(), "cache.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

// backends 返回所有后端的构造函数
func backends(t *testing.T) map[string]func(clock.Clock) interfaces.KVS {
	return map[string]func(clock.Clock) interfaces.KVS{
		"memory": func(c clock.Clock) interfaces.KVS {
			return NewMemory(WithClock(c))
		},
		"lru": func(c clock.Clock) interfaces.KVS {
			l, err := NewLRU(16, WithClock(c))
			require.NoError(t, err)
			return l
		},
		"persistent": func(c clock.Clock) interfaces.KVS {
			p, err := NewPersistent(testEngine(t), 64, WithClock(c))
			require.NoError(t, err)
			t.Cleanup(func() { _ = p.Close() })
			return p
		},
	}
}

// TestKVS_Contract 所有后端共同遵守的读写约定
func TestKVS_Contract(t *testing.T) {
	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			mock := clock.NewMock()
			mock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			kvs := build(mock)

			_, ok, err := kvs.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			// 正向条目
			require.NoError(t, kvs.Set(ctx, "doc", []byte(`{"a":1}`)))
			e, ok, err := kvs.Get(ctx, "doc")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `{"a":1}`, string(e.Data))
			assert.False(t, e.Negative())
			assert.True(t, e.Timestamp.Equal(mock.Now()))

			// 负缓存与"没有条目"不同
			require.NoError(t, kvs.Set(ctx, "gone", nil))
			e, ok, err = kvs.Get(ctx, "gone")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, e.Negative())

			// 覆盖写入刷新时间戳
			mock.Add(time.Minute)
			require.NoError(t, kvs.Set(ctx, "doc", []byte(`{"a":2}`)))
			e, _, _ = kvs.Get(ctx, "doc")
			assert.Equal(t, `{"a":2}`, string(e.Data))
			assert.Equal(t, time.Duration(0), e.Age(mock.Now()))

			// 大条目（persistent 后端会压缩）
			big := []byte(`"` + strings.Repeat("concrnt", 100) + `"`)
			require.NoError(t, kvs.Set(ctx, "big", big))
			e, _, _ = kvs.Get(ctx, "big")
			assert.True(t, bytes.Equal(big, e.Data))

			// 返回值与内部存储隔离
			e.Data[0] = 'X'
			e, _, _ = kvs.Get(ctx, "big")
			assert.Equal(t, byte('"'), e.Data[0])

			require.NoError(t, kvs.Invalidate(ctx, "doc"))
			_, ok, _ = kvs.Get(ctx, "doc")
			assert.False(t, ok)
			require.NoError(t, kvs.Invalidate(ctx, "doc"))
		})
	}
}

func TestLRU_Eviction(t *testing.T) {
	ctx := context.Background()
	l, err := NewLRU(2)
	require.NoError(t, err)

	_ = l.Set(ctx, "a", []byte("1"))
	_ = l.Set(ctx, "b", []byte("2"))
	_, _, _ = l.Get(ctx, "a") // a 变为最近使用
	_ = l.Set(ctx, "c", []byte("3"))

	_, ok, _ := l.Get(ctx, "b")
	assert.False(t, ok, "b 应被淘汰")
	_, ok, _ = l.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, l.Len())

	_, err = NewLRU(0)
	assert.Error(t, err)
}

func TestPersistent_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	eng, err := badger.New(engine.DefaultConfig(path))
	require.NoError(t, err)
	p, err := NewPersistent(eng, 8)
	require.NoError(t, err)
	require.NoError(t, p.Set(ctx, "server", []byte(`{"domain":"concrnt.example"}`)))
	require.NoError(t, p.Set(ctx, "absent", nil))
	require.NoError(t, p.Close())
	require.NoError(t, eng.Close())

	eng, err = badger.New(engine.DefaultConfig(path))
	require.NoError(t, err)
	defer eng.Close()
	p, err = NewPersistent(eng, 8)
	require.NoError(t, err)
	defer p.Close()

	e, ok, err := p.Get(ctx, "server")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"domain":"concrnt.example"}`, string(e.Data))

	e, ok, _ = p.Get(ctx, "absent")
	assert.True(t, ok)
	assert.True(t, e.Negative())

	n, err := p.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, p.Purge())
	n, _ = p.Len()
	assert.Equal(t, int64(0), n)
}

func TestPersistent_Corrupted(t *testing.T) {
	ctx := context.Background()
	eng := testEngine(t)
	p, err := NewPersistent(eng, 0)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, eng.Put(append(append([]byte{}, KeyPrefix...), "bad"...), []byte{0xff}))
	_, ok, err := p.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew_Backends(t *testing.T) {
	cfg := config.DefaultCacheConfig()

	kvs, err := New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kvs)

	kvs, err = New(cfg.WithBackend(config.CacheBackendLRU), nil)
	require.NoError(t, err)
	assert.IsType(t, &LRU{}, kvs)

	_, err = New(cfg.WithBackend(config.CacheBackendBadger), nil)
	assert.Error(t, err)

	kvs, err = New(cfg.WithBackend(config.CacheBackendBadger), testEngine(t))
	require.NoError(t, err)
	assert.IsType(t, &Persistent{}, kvs)
	_ = kvs.(*Persistent).Close()

	_, err = New(cfg.WithBackend("redis"), nil)
	assert.Error(t, err)
}
