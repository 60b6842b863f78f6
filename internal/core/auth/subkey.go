package auth

import (
	"github.com/dep2p/go-concrnt/internal/core/identity"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
	"github.com/dep2p/go-concrnt/pkg/lib/crypto"
)

// SubKeyProvider 子密钥认证
//
// API 令牌以 CKID 签发；IssueJWT 的 iss 缺省为委托方 CCID 并带 kid。
type SubKeyProvider struct {
	*keySigner
}

// NewSubKeyProvider 由子密钥文本创建 provider
func NewSubKeyProvider(secret string, opts ...Option) (*SubKeyProvider, error) {
	sk, err := identity.LoadSubKey(secret)
	if err != nil {
		return nil, err
	}
	return NewSubKeyProviderFrom(sk, opts...)
}

// NewSubKeyProviderFrom 由已解析的子密钥创建 provider
func NewSubKeyProviderFrom(sk *identity.SubKey, opts ...Option) (*SubKeyProvider, error) {
	signer, err := newKeySigner(sk.Key(), sk.CCID, sk.CKID, sk.CKID, sk.Domain, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	logger.Debug("创建子密钥认证", "ccid", sk.CCID, "ckid", sk.CKID, "host", sk.Domain)
	return &SubKeyProvider{keySigner: signer}, nil
}

// IssueJWT 签发自定义声明的令牌
func (p *SubKeyProvider) IssueJWT(claims crypto.Claims) (string, error) {
	return p.issueJWT(claims, p.ckid)
}

var _ interfaces.AuthProvider = (*SubKeyProvider)(nil)
