// Package metrics 提供客户端的监控指标
//
// 两类指标：
//
//   - FetchMetrics: Prometheus 计数器与直方图，记录请求结果、缓存命中、
//     熔断与合并请求。未提供 Registerer 时指标只在进程内累计。
//   - BandwidthCounter: 按服务器统计收发字节数与最近 60 秒的速率。
//
// # 快速开始
//
//	m := metrics.NewFetchMetrics(prometheus.DefaultRegisterer)
//	m.Request("concrnt.example", metrics.OutcomeOK)
//
//	bw := metrics.NewBandwidthCounter()
//	bw.LogRecv("concrnt.example", 2048)
//	stats := bw.ForHost("concrnt.example")
//
// 所有方法在 nil 接收者上调用是安全的。
package metrics
