package metrics

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-concrnt/pkg/lib/log"
)

var logger = log.Logger("core/metrics")

// Params Metrics 依赖参数
type Params struct {
	fx.In

	Registerer prometheus.Registerer `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
}

// Result Metrics 模块提供的结果
type Result struct {
	fx.Out

	Fetch     *FetchMetrics
	Bandwidth *BandwidthCounter
}

// Module 返回 metrics 的 Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideMetrics),
	)
}

// ProvideMetrics 创建指标
func ProvideMetrics(p Params) Result {
	return Result{
		Fetch:     NewFetchMetrics(p.Registerer),
		Bandwidth: NewBandwidthCounter(WithBandwidthClock(p.Clock)),
	}
}
