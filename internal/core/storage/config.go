package storage

import (
	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/storage/engine"
)

// EngineConfig 由客户端配置得到引擎配置
//
// cfg 为 nil 时使用 config.DefaultStorageConfig()。
func EngineConfig(cfg *config.Config, clk clock.Clock) *engine.Config {
	sc := config.DefaultStorageConfig()
	if cfg != nil {
		sc = cfg.Storage
	}

	ec := engine.DefaultConfig(sc.DBPath())
	ec.SyncWrites = sc.SyncWrites
	ec.GCInterval = sc.GCInterval.Duration()
	ec.Clock = clk
	ec.Logger = badgerLog{}
	return ec
}
