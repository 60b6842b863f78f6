package concrnt

import (
	"fmt"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/auth"
	"github.com/dep2p/go-concrnt/internal/core/cache"
	"github.com/dep2p/go-concrnt/internal/core/fetch"
	"github.com/dep2p/go-concrnt/internal/core/identity"
	"github.com/dep2p/go-concrnt/internal/core/metrics"
	"github.com/dep2p/go-concrnt/internal/core/resolver"
	"github.com/dep2p/go-concrnt/internal/core/storage"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
)

var fxLogger = log.Logger("concrnt/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置与外部依赖注入
//  2. Storage（仅 badger 缓存后端）→ Cache
//  3. Identity → Auth
//  4. Metrics → Fetch → Resolver
func buildFxApp(cfg *config.Config, o *options, c *Client) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg),
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 外部依赖（可选）
	// ════════════════════════════════════════════════════════════════════════
	if o.httpClient != nil {
		hc := o.httpClient
		modules = append(modules, fx.Provide(func() *http.Client { return hc }))
	}
	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if o.registerer != nil {
		reg := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}
	if o.secure != nil {
		secure := o.secure
		modules = append(modules, fx.Provide(func() interfaces.SecureStore { return secure }))
	}
	if o.credentials != nil {
		creds := *o.credentials
		if creds.Host == "" {
			creds.Host = cfg.Host
		}
		modules = append(modules, fx.Supply(&creds))
	}
	if o.kvs != nil {
		kvs := o.kvs
		modules = append(modules, fx.Provide(
			fx.Annotate(
				func() interfaces.KVS { return kvs },
				fx.ResultTags(`name:"custom_kvs"`),
			),
		))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 存储与缓存
	// ════════════════════════════════════════════════════════════════════════
	if o.kvs == nil && cfg.Cache.Backend == config.CacheBackendBadger {
		modules = append(modules, storage.Module())
		fxLogger.Debug("已加载持久化存储", "path", cfg.Storage.DBPath())
	}
	modules = append(modules, cache.Module())

	// ════════════════════════════════════════════════════════════════════════
	// 4. 身份与认证
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		identity.Module(),
		auth.Module(),
	)

	// ════════════════════════════════════════════════════════════════════════
	// 5. 请求与解析
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		metrics.Module(),
		fetch.Module(),
		resolver.Module(),
	)

	// ════════════════════════════════════════════════════════════════════════
	// 6. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 7. Client 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		fx.Invoke(injectClientComponents(c)),
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(modules...), nil
}

// clientInjectParams Client 组件注入参数
type clientInjectParams struct {
	fx.In

	Auth      interfaces.AuthProvider
	Engine    *fetch.Engine
	Resolver  *resolver.Resolver
	Store     *identity.Store
	Bandwidth *metrics.BandwidthCounter `optional:"true"`
}

// injectClientComponents 创建 Client 组件注入函数
func injectClientComponents(c *Client) interface{} {
	return func(p clientInjectParams) {
		c.auth = p.Auth
		c.engine = p.Engine
		c.resolver = p.Resolver
		c.store = p.Store
		c.bandwidth = p.Bandwidth
	}
}
