package resolver

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/fetch"
)

// Params Resolver 模块依赖参数
type Params struct {
	fx.In

	Engine *fetch.Engine
	Config *config.Config `optional:"true"`
	Clock  clock.Clock    `optional:"true"`
}

// Result Resolver 模块提供的结果
type Result struct {
	fx.Out

	Resolver *Resolver
}

// Module 返回 Resolver Fx 模块
func Module() fx.Option {
	return fx.Module("resolver",
		fx.Provide(ProvideResolver),
	)
}

// ProvideResolver 创建解析器
func ProvideResolver(p Params) Result {
	cfg := config.DefaultResolverConfig()
	if p.Config != nil {
		cfg = p.Config.Resolver
	}
	return Result{Resolver: New(p.Engine, cfg, WithClock(p.Clock))}
}
