package storage

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/storage/engine"
	"github.com/dep2p/go-concrnt/internal/core/storage/engine/badger"
	"github.com/dep2p/go-concrnt/internal/core/storage/kv"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
)

var logger = log.Logger("core/storage")

// Params Storage 模块依赖参数
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`
	Clock  clock.Clock    `optional:"true"`
}

// Result Storage 模块提供的结果
type Result struct {
	fx.Out

	Engine engine.Engine
}

// Module 返回 Storage Fx 模块
//
// OnStart 启动值日志回收，OnStop 关闭数据库。
// 依赖引擎的组件（cache.Persistent）先于它停止。
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideStorage),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStorage 打开数据库
func ProvideStorage(p Params) (Result, error) {
	eng, err := Open(EngineConfig(p.Config, p.Clock))
	if err != nil {
		return Result{}, err
	}
	return Result{Engine: eng}, nil
}

func registerLifecycle(lc fx.Lifecycle, eng engine.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return eng.Start()
		},
		OnStop: func(context.Context) error {
			if err := eng.Close(); err != nil {
				logger.Warn("关闭数据库失败", "error", err)
				return err
			}
			logger.Debug("数据库已关闭")
			return nil
		},
	})
}

// Open 按引擎配置打开数据库
func Open(cfg *engine.Config) (engine.Engine, error) {
	eng, err := badger.New(cfg)
	if err != nil {
		logger.Error("打开数据库失败", "path", cfg.Path, "error", err)
		return nil, err
	}
	logger.Debug("数据库已打开", "path", cfg.Path)
	return eng, nil
}

// NewKVStore 在 eng 上创建以 prefix 隔离的命名空间
func NewKVStore(eng engine.Engine, prefix []byte) *kv.Store {
	return kv.New(eng, prefix)
}

// badgerLog 把 badger 内部日志转到 core/storage，Info 降为 Debug
type badgerLog struct{}

func (badgerLog) Errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf(format, args...))
}

func (badgerLog) Warningf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(format, args...))
}

func (badgerLog) Infof(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

func (badgerLog) Debugf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}
