// Package interfaces 定义 Concrnt 公共接口
//
// 本文件定义 AuthProvider 接口，为请求提供身份与签名。
package interfaces

import (
	"context"

	"github.com/dep2p/go-concrnt/pkg/lib/crypto"
)

// AuthProvider 认证提供者
//
// 三种实现在构造时确定：主密钥（完全权限）、子密钥（委托权限）、
// 访客（匿名）。调用方只依赖本接口，不做类型断言。
type AuthProvider interface {
	// CCID 返回身份所属实体地址
	CCID() (string, error)

	// CKID 返回子密钥地址，非子密钥身份返回空串
	CKID() string

	// Host 返回身份的归属服务器
	Host() string

	// Headers 返回访问 domain 所需的请求头
	Headers(ctx context.Context, domain string) (map[string]string, error)

	// AuthToken 返回作用于 domain 的 bearer 令牌
	AuthToken(domain string) (string, error)

	// Passport 返回归属服务器签发的 passport
	Passport(ctx context.Context) (string, error)

	// Sign 对 payload 签名，返回 r||s||v 十六进制
	Sign(payload []byte) (string, error)

	// IssueJWT 签发自定义声明的令牌
	IssueJWT(claims crypto.Claims) (string, error)
}
