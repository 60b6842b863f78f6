package types

import "strings"

// ============================================================================
//                              地址类型
// ============================================================================

// FQDN 服务器域名
type FQDN = string

// CCID 实体地址
type CCID = string

// CSID 服务器地址
type CSID = string

// CKID 子密钥地址
type CKID = string

// 地址前缀（bech32 HRP）
const (
	// PrefixCCID 实体地址前缀
	PrefixCCID = "con"

	// PrefixCSID 服务器地址前缀
	PrefixCSID = "ccs"

	// PrefixCKID 子密钥地址前缀
	PrefixCKID = "cck"

	// AddressLength 地址固定长度
	AddressLength = 42
)

// IsCCID 检查字符串是否为实体地址
func IsCCID(s string) bool {
	return isAddress(s, PrefixCCID)
}

// IsCSID 检查字符串是否为服务器地址
func IsCSID(s string) bool {
	return isAddress(s, PrefixCSID)
}

// IsCKID 检查字符串是否为子密钥地址
func IsCKID(s string) bool {
	return isAddress(s, PrefixCKID)
}

// isAddress 仅做形状判定：前缀 + 分隔符、不含 '.'、长度 42
func isAddress(s, hrp string) bool {
	return len(s) == AddressLength &&
		strings.HasPrefix(s, hrp+"1") &&
		!strings.Contains(s, ".")
}
