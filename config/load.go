package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// FromJSON 从 JSON 加载配置
//
// 允许注释与尾随逗号（JSONC）。未出现的字段保留默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg, err := parseJSON(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromYAML 从 YAML 加载配置
func FromYAML(data []byte) (*Config, error) {
	cfg, err := parseYAML(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile 按扩展名加载配置文件
//
// .yaml / .yml 按 YAML 解析，其余按 JSONC 解析。
// 文件中显式写为零的超时、余量等字段经 ValidateAndFix 回到默认值。
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	default:
		cfg, err = parseJSON(data)
	}
	if err != nil {
		return nil, err
	}
	return ValidateAndFix(cfg)
}

func parseJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, fmt.Errorf("config: parse json: %w", err)
	}
	return cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	return cfg, nil
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
