package fetch

import (
	"context"
	"net/http"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/metrics"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// Params Fetch 模块依赖参数
type Params struct {
	fx.In

	Config     *config.Config            `optional:"true"`
	KVS        interfaces.KVS
	Auth       interfaces.AuthProvider   `optional:"true"`
	HTTPClient *http.Client              `optional:"true"`
	Clock      clock.Clock               `optional:"true"`
	Metrics    *metrics.FetchMetrics     `optional:"true"`
	Bandwidth  *metrics.BandwidthCounter `optional:"true"`
}

// Result Fetch 模块提供的结果
type Result struct {
	fx.Out

	Engine *Engine
}

// Module 返回 Fetch Fx 模块
func Module() fx.Option {
	return fx.Module("fetch",
		fx.Provide(ProvideEngine),
	)
}

// ProvideEngine 创建引擎并注册关闭钩子
func ProvideEngine(lc fx.Lifecycle, p Params) (Result, error) {
	eng, err := New(p.Config, p.KVS, p.Auth,
		WithHTTPClient(p.HTTPClient),
		WithClock(p.Clock),
		WithMetrics(p.Metrics),
		WithBandwidth(p.Bandwidth),
	)
	if err != nil {
		return Result{}, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return eng.Close()
		},
	})
	return Result{Engine: eng}, nil
}
