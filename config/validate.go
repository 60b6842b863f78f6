package config

import (
	"errors"
)

// ValidateAll 验证整个配置的有效性
//
// 与 Config.Validate() 相同，额外拒绝 nil。命令行应用覆盖项后调用。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 非正的超时或窗口 -> 使用默认值
//   - 刷新余量非正或不小于令牌有效期 -> 使用默认值
//   - 空的后端或路径 -> 使用默认值
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	fetch := DefaultFetchConfig()
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = fetch.Timeout
	}
	if c.Fetch.BackoffBase <= 0 {
		c.Fetch.BackoffBase = fetch.BackoffBase
	}
	if c.Fetch.BackoffFactor < 1 {
		c.Fetch.BackoffFactor = fetch.BackoffFactor
	}
	if c.Fetch.Scheme == "" {
		c.Fetch.Scheme = fetch.Scheme
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendMemory
	}
	if c.Cache.Backend == CacheBackendLRU && c.Cache.LRUSize < 1 {
		c.Cache.LRUSize = DefaultCacheConfig().LRUSize
	}

	auth := DefaultAuthConfig()
	if c.Auth.TokenLifetime <= 0 {
		c.Auth.TokenLifetime = auth.TokenLifetime
	}
	if c.Auth.RefreshMargin <= 0 || c.Auth.RefreshMargin >= c.Auth.TokenLifetime {
		c.Auth.RefreshMargin = auth.RefreshMargin
	}
	if c.Auth.TokenCacheSize < 1 {
		c.Auth.TokenCacheSize = auth.TokenCacheSize
	}
	if c.Auth.PassportPath == "" {
		c.Auth.PassportPath = auth.PassportPath
	}

	if c.Resolver.WellKnownPath == "" {
		c.Resolver.WellKnownPath = DefaultResolverConfig().WellKnownPath
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultStorageConfig().DataDir
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
