package config

import (
	"errors"
	"time"
)

// FetchConfig 网络请求配置
//
// 熔断窗口 = BackoffBase × BackoffFactor^min(连续失败次数, BackoffMaxExponent)
type FetchConfig struct {
	// Timeout 单次请求超时
	// 默认值: 10s
	Timeout Duration `json:"timeout" yaml:"timeout"`

	// BackoffBase 熔断基础窗口
	// 默认值: 500ms
	BackoffBase Duration `json:"backoff_base" yaml:"backoff_base"`

	// BackoffFactor 熔断窗口增长因子
	// 默认值: 1.5
	BackoffFactor float64 `json:"backoff_factor" yaml:"backoff_factor"`

	// BackoffMaxExponent 指数上限
	// 默认值: 15
	BackoffMaxExponent int `json:"backoff_max_exponent" yaml:"backoff_max_exponent"`

	// OnlineProbeWindow 在线确认的有效期
	// 默认值: 5s
	OnlineProbeWindow Duration `json:"online_probe_window" yaml:"online_probe_window"`

	// RequestRate 每个服务器每秒请求数上限，0 表示不限
	RequestRate float64 `json:"request_rate" yaml:"request_rate"`

	// RequestBurst 限速突发量
	RequestBurst int `json:"request_burst" yaml:"request_burst"`

	// Scheme 请求协议
	// 默认值: "https"
	Scheme string `json:"scheme" yaml:"scheme"`
}

// DefaultFetchConfig 返回默认网络请求配置
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:            Duration(10 * time.Second),
		BackoffBase:        Duration(500 * time.Millisecond),
		BackoffFactor:      1.5,
		BackoffMaxExponent: 15,
		OnlineProbeWindow:  Duration(5 * time.Second),
		RequestRate:        0,
		RequestBurst:       10,
		Scheme:             "https",
	}
}

// Validate 验证网络请求配置
func (c FetchConfig) Validate() error {
	if c.Timeout <= 0 {
		return errors.New("fetch: timeout must be positive")
	}
	if c.BackoffBase <= 0 {
		return errors.New("fetch: backoff_base must be positive")
	}
	if c.BackoffFactor < 1 {
		return errors.New("fetch: backoff_factor must be >= 1")
	}
	if c.BackoffMaxExponent < 0 {
		return errors.New("fetch: backoff_max_exponent cannot be negative")
	}
	if c.RequestRate < 0 {
		return errors.New("fetch: request_rate cannot be negative")
	}
	if c.RequestRate > 0 && c.RequestBurst < 1 {
		return errors.New("fetch: request_burst must be >= 1 when rate limiting")
	}
	switch c.Scheme {
	case "http", "https":
	default:
		return errors.New("fetch: scheme must be http or https")
	}
	return nil
}

// WithTimeout 设置请求超时
func (c FetchConfig) WithTimeout(d time.Duration) FetchConfig {
	c.Timeout = Duration(d)
	return c
}

// WithRateLimit 设置每服务器限速
func (c FetchConfig) WithRateLimit(rate float64, burst int) FetchConfig {
	c.RequestRate = rate
	c.RequestBurst = burst
	return c
}
