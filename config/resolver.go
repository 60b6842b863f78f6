package config

import (
	"errors"
	"strings"
)

// ResolverConfig 资源解析配置
type ResolverConfig struct {
	// VerifyEntities 获取实体时校验归属签名
	// 默认值: true
	VerifyEntities bool `json:"verify_entities" yaml:"verify_entities"`

	// WellKnownPath 服务描述路径
	// 默认值: "/.well-known/concrnt"
	WellKnownPath string `json:"well_known_path" yaml:"well_known_path"`
}

// DefaultResolverConfig 返回默认资源解析配置
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		VerifyEntities: true,
		WellKnownPath:  "/.well-known/concrnt",
	}
}

// Validate 验证资源解析配置
func (c ResolverConfig) Validate() error {
	if !strings.HasPrefix(c.WellKnownPath, "/") {
		return errors.New("resolver: well_known_path must start with /")
	}
	return nil
}
