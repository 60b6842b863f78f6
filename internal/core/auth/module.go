package auth

import (
	"context"
	"net/http"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/identity"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// Params Auth 模块依赖参数
type Params struct {
	fx.In

	Config      *config.Config  `optional:"true"`
	Credentials *Credentials    `optional:"true"`
	Store       *identity.Store `optional:"true"`
	HTTPClient  *http.Client    `optional:"true"`
	Clock       clock.Clock     `optional:"true"`
}

// Result Auth 模块提供的结果
type Result struct {
	fx.Out

	Provider interfaces.AuthProvider
}

// Module 返回 Auth Fx 模块
//
// 未显式提供凭据时从身份存储读取；都没有时为匿名身份。
func Module() fx.Option {
	return fx.Module("auth",
		fx.Provide(ProvideAuth),
	)
}

// ProvideAuth 创建 provider
func ProvideAuth(p Params) (Result, error) {
	cfg := config.NewConfig()
	if p.Config != nil {
		cfg = p.Config
	}

	var creds Credentials
	switch {
	case p.Credentials != nil:
		creds = *p.Credentials
	case p.Store != nil:
		loaded, err := LoadCredentials(context.Background(), p.Store, cfg.Host)
		if err != nil {
			return Result{}, err
		}
		creds = loaded
	}
	if creds.Host == "" {
		creds.Host = cfg.Host
	}

	provider, err := New(creds,
		WithConfig(cfg.Auth),
		WithScheme(cfg.Fetch.Scheme),
		WithHTTPClient(p.HTTPClient),
		WithClock(p.Clock),
	)
	if err != nil {
		return Result{}, err
	}
	if creds.Guest() {
		logger.Info("以访客身份运行", "host", creds.Host)
	}
	return Result{Provider: provider}, nil
}
