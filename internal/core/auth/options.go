package auth

import (
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-concrnt/config"
)

// defaultPassportTimeout 获取 passport 的超时
const defaultPassportTimeout = 10 * time.Second

// Option provider 选项
type Option func(*options)

type options struct {
	cfg             config.AuthConfig
	client          *http.Client
	clock           clock.Clock
	passportTimeout time.Duration
	scheme          string
}

func applyOptions(opts []Option) options {
	o := options{
		cfg:             config.DefaultAuthConfig(),
		client:          http.DefaultClient,
		clock:           clock.New(),
		passportTimeout: defaultPassportTimeout,
		scheme:          "https",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithConfig 设置认证配置
func WithConfig(cfg config.AuthConfig) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithHTTPClient 设置获取 passport 使用的 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithPassportTimeout 设置获取 passport 的超时
func WithPassportTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.passportTimeout = d
		}
	}
}

// WithScheme 设置获取 passport 使用的协议，与请求引擎保持一致
func WithScheme(scheme string) Option {
	return func(o *options) {
		if scheme != "" {
			o.scheme = scheme
		}
	}
}
