package auth

import (
	"context"

	"github.com/dep2p/go-concrnt/pkg/interfaces"
	"github.com/dep2p/go-concrnt/pkg/lib/crypto"
	"github.com/dep2p/go-concrnt/pkg/types"
)

// GuestProvider 匿名认证
type GuestProvider struct {
	host string
}

// NewGuestProvider 创建匿名 provider，host 为默认服务器
func NewGuestProvider(host string) *GuestProvider {
	return &GuestProvider{host: host}
}

// CCID 匿名身份没有地址
func (g *GuestProvider) CCID() (string, error) {
	return "", types.ErrNotImplemented
}

// CKID 匿名身份没有子密钥
func (g *GuestProvider) CKID() string {
	return ""
}

// Host 返回默认服务器
func (g *GuestProvider) Host() string {
	return g.host
}

// Headers 返回空请求头
func (g *GuestProvider) Headers(context.Context, string) (map[string]string, error) {
	return map[string]string{}, nil
}

// AuthToken 不支持
func (g *GuestProvider) AuthToken(string) (string, error) {
	return "", types.ErrNotImplemented
}

// Passport 不支持
func (g *GuestProvider) Passport(context.Context) (string, error) {
	return "", types.ErrNotImplemented
}

// Sign 不支持
func (g *GuestProvider) Sign([]byte) (string, error) {
	return "", types.ErrNotImplemented
}

// IssueJWT 不支持
func (g *GuestProvider) IssueJWT(crypto.Claims) (string, error) {
	return "", types.ErrNotImplemented
}

var _ interfaces.AuthProvider = (*GuestProvider)(nil)
