package cache

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/storage/engine"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
)

var logger = log.Logger("core/cache")

// Params Cache 模块依赖参数
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`
	Clock  clock.Clock    `optional:"true"`

	// Engine 仅 badger 后端需要
	Engine engine.Engine `optional:"true"`

	// KVS 调用方自带的缓存，存在时忽略配置中的后端
	Custom interfaces.KVS `name:"custom_kvs" optional:"true"`
}

// Result Cache 模块提供的结果
type Result struct {
	fx.Out

	KVS interfaces.KVS
}

// Module 返回 Cache Fx 模块
func Module() fx.Option {
	return fx.Module("cache",
		fx.Provide(ProvideCache),
	)
}

// ProvideCache 按配置选择缓存后端
func ProvideCache(lc fx.Lifecycle, p Params) (Result, error) {
	if p.Custom != nil {
		logger.Debug("使用外部缓存")
		return Result{KVS: p.Custom}, nil
	}

	cfg := config.DefaultCacheConfig()
	if p.Config != nil {
		cfg = p.Config.Cache
	}

	kvs, err := New(cfg, p.Engine, WithClock(p.Clock))
	if err != nil {
		return Result{}, err
	}
	if persistent, ok := kvs.(*Persistent); ok {
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return persistent.Close()
			},
		})
	}
	logger.Debug("缓存后端已创建", "backend", cfg.Backend)
	return Result{KVS: kvs}, nil
}

// New 按配置创建缓存后端
func New(cfg config.CacheConfig, eng engine.Engine, opts ...Option) (interfaces.KVS, error) {
	switch cfg.Backend {
	case "", config.CacheBackendMemory:
		return NewMemory(opts...), nil
	case config.CacheBackendLRU:
		l, err := NewLRU(cfg.LRUSize, opts...)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.CacheBackendBadger:
		if eng == nil {
			return nil, fmt.Errorf("cache: badger backend requires a storage engine")
		}
		p, err := NewPersistent(eng, cfg.CompressThreshold, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}
