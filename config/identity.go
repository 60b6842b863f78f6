package config

import (
	"errors"
)

// IdentityConfig 身份配置
//
// 身份本身（助记词、私钥）从不写入配置文件，
// 这里只描述加密存储的位置。
type IdentityConfig struct {
	// StorePath 加密身份存储文件路径
	// 为空时仅在内存中保存（进程退出即丢失）
	StorePath string `json:"store_path" yaml:"store_path"`

	// PassphraseEnv 读取存储口令的环境变量名
	// 默认值: "CONCRNT_PASSPHRASE"
	PassphraseEnv string `json:"passphrase_env" yaml:"passphrase_env"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		StorePath:     "",
		PassphraseEnv: "CONCRNT_PASSPHRASE",
	}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	if c.StorePath != "" && c.PassphraseEnv == "" {
		return errors.New("identity: passphrase_env required when store_path is set")
	}
	return nil
}
