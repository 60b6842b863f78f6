package config

import (
	"errors"
	"strings"
	"time"
)

// AuthConfig 认证配置
type AuthConfig struct {
	// TokenLifetime 令牌有效期
	// 默认值: 5m
	TokenLifetime Duration `json:"token_lifetime" yaml:"token_lifetime"`

	// RefreshMargin 令牌提前刷新余量，容忍客户端与服务器的时钟偏差
	// 默认值: 30s
	RefreshMargin Duration `json:"refresh_margin" yaml:"refresh_margin"`

	// TokenCacheSize 按服务器缓存令牌的数量上限
	// 默认值: 256
	TokenCacheSize int `json:"token_cache_size" yaml:"token_cache_size"`

	// PassportPath passport 获取路径
	// 默认值: "/api/v1/auth/passport"
	PassportPath string `json:"passport_path" yaml:"passport_path"`
}

// DefaultAuthConfig 返回默认认证配置
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		TokenLifetime:  Duration(5 * time.Minute),
		RefreshMargin:  Duration(30 * time.Second),
		TokenCacheSize: 256,
		PassportPath:   "/api/v1/auth/passport",
	}
}

// Validate 验证认证配置
func (c AuthConfig) Validate() error {
	if c.TokenLifetime <= 0 {
		return errors.New("auth: token_lifetime must be positive")
	}
	if c.RefreshMargin < 0 || c.RefreshMargin >= c.TokenLifetime {
		return errors.New("auth: refresh_margin must be in [0, token_lifetime)")
	}
	if c.TokenCacheSize < 1 {
		return errors.New("auth: token_cache_size must be positive")
	}
	if !strings.HasPrefix(c.PassportPath, "/") {
		return errors.New("auth: passport_path must start with /")
	}
	return nil
}
