// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON / JSONC / YAML 加载配置
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Host = "concrnt.example"
//	cfg.Cache.Backend = config.CacheBackendBadger
//
//	// 从文件加载
//	cfg, err := config.LoadFile("concrnt.yaml")
package config

// Config 是 Concrnt 客户端的完整配置结构
//
// 配置按照功能模块组织：
//   - Host: 默认服务器（用户的归属域）
//   - Identity: 身份存储位置
//   - Fetch: 网络请求、熔断与限速
//   - Cache: 响应缓存
//   - Auth: 令牌与 passport
//   - Storage: 持久化存储（仅 badger 缓存后端使用）
//   - Resolver: 资源解析
type Config struct {
	// Host 默认服务器域名
	// 未指定域名的请求、实体查询与提交都发往该服务器
	Host string `json:"host" yaml:"host"`

	// Identity 身份配置
	Identity IdentityConfig `json:"identity" yaml:"identity"`

	// Fetch 网络请求配置
	Fetch FetchConfig `json:"fetch" yaml:"fetch"`

	// Cache 缓存配置
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Auth 认证配置
	Auth AuthConfig `json:"auth" yaml:"auth"`

	// Storage 存储配置
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Resolver 资源解析配置
	Resolver ResolverConfig `json:"resolver" yaml:"resolver"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity: DefaultIdentityConfig(),
		Fetch:    DefaultFetchConfig(),
		Cache:    DefaultCacheConfig(),
		Auth:     DefaultAuthConfig(),
		Storage:  DefaultStorageConfig(),
		Resolver: DefaultResolverConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，如果发现无效配置则返回错误。
func (c *Config) Validate() error {
	if err := c.Identity.Validate(); err != nil {
		return err
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if c.Cache.Backend == CacheBackendBadger {
		if err := c.Storage.Validate(); err != nil {
			return err
		}
	}
	return c.Resolver.Validate()
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
