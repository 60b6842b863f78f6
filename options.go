package concrnt

import (
	"errors"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/auth"
	"github.com/dep2p/go-concrnt/internal/core/identity"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// Option 客户端配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 基础配置，缺省为 config.NewConfig()
	config *config.Config

	// 覆盖配置中的默认服务器
	host string

	// 凭据
	credentials *auth.Credentials

	// 外部依赖（均可选）
	kvs        interfaces.KVS
	secure     interfaces.SecureStore
	httpClient *http.Client
	clock      clock.Clock
	registerer prometheus.Registerer

	// 覆盖存储目录
	dataDir string

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

func newOptions() *options {
	return &options{}
}

// toConfig 合并选项得到最终配置
func (o *options) toConfig() *config.Config {
	var cfg *config.Config
	if o.config != nil {
		cfg = o.config.Clone()
	} else {
		cfg = config.NewConfig()
	}
	if o.host != "" {
		cfg.Host = o.host
	}
	if o.dataDir != "" {
		cfg.Storage.DataDir = o.dataDir
		if o.kvs == nil {
			cfg.Cache.Backend = config.CacheBackendBadger
		}
	}
	return cfg
}

func (o *options) creds() *auth.Credentials {
	if o.credentials == nil {
		o.credentials = &auth.Credentials{}
	}
	return o.credentials
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置
//
// 之后的 WithHost、WithDataDir 仍会覆盖对应字段。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		return nil
	}
}

// WithHost 设置默认服务器
func WithHost(host string) Option {
	return func(o *options) error {
		if host == "" {
			return errors.New("host cannot be empty")
		}
		o.host = host
		return nil
	}
}

// WithDataDir 设置存储目录并启用持久化缓存
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.New("data dir cannot be empty")
		}
		o.dataDir = dir
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              身份
// ════════════════════════════════════════════════════════════════════════════

// WithIdentity 使用已加载的身份（主密钥）
func WithIdentity(id *identity.Identity) Option {
	return func(o *options) error {
		if id == nil {
			return errors.New("identity is nil")
		}
		if err := id.Validate(); err != nil {
			return err
		}
		o.creds().Identity = id
		return nil
	}
}

// WithPrivateKey 使用十六进制主私钥
func WithPrivateKey(privateKeyHex string) Option {
	return func(o *options) error {
		if _, err := identity.LoadKey(privateKeyHex); err != nil {
			return err
		}
		o.creds().PrivateKey = privateKeyHex
		return nil
	}
}

// WithSubKey 使用子密钥
//
// 子密钥自带归属服务器，未设置 WithHost 时以它为默认服务器。
func WithSubKey(secret string) Option {
	return func(o *options) error {
		sk, err := identity.LoadSubKey(secret)
		if err != nil {
			return err
		}
		o.creds().SubKey = secret
		if o.host == "" {
			o.host = sk.Domain
		}
		return nil
	}
}

// WithGuest 以访客身份运行，忽略存储中的身份
func WithGuest() Option {
	return func(o *options) error {
		o.credentials = &auth.Credentials{}
		return nil
	}
}

// WithSecureStore 设置身份所在的安全存储
//
// 未显式给出凭据时从这里读取身份。
func WithSecureStore(store interfaces.SecureStore) Option {
	return func(o *options) error {
		o.secure = store
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              依赖注入
// ════════════════════════════════════════════════════════════════════════════

// WithCache 使用调用方提供的缓存，忽略配置中的后端
func WithCache(kvs interfaces.KVS) Option {
	return func(o *options) error {
		o.kvs = kvs
		return nil
	}
}

// WithHTTPClient 设置 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) error {
		o.httpClient = c
		return nil
	}
}

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		o.clock = c
		return nil
	}
}

// WithMetricsRegisterer 将请求指标注册到 reg
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
