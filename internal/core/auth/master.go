package auth

import (
	"errors"

	"github.com/dep2p/go-concrnt/pkg/interfaces"
	"github.com/dep2p/go-concrnt/pkg/lib/crypto"
)

// ErrEmptyHost 未指定归属服务器
var ErrEmptyHost = errors.New("auth: home host is required")

// MasterKeyProvider 主密钥认证
type MasterKeyProvider struct {
	*keySigner
}

// NewMasterKeyProvider 由主私钥和归属服务器创建 provider
func NewMasterKeyProvider(privateKeyHex, host string, opts ...Option) (*MasterKeyProvider, error) {
	if host == "" {
		return nil, ErrEmptyHost
	}
	key, err := crypto.ParsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}
	ccid, err := crypto.ComputeCCID(key.PubKey())
	if err != nil {
		return nil, err
	}

	signer, err := newKeySigner(key, ccid, "", ccid, host, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	logger.Debug("创建主密钥认证", "ccid", ccid, "host", host)
	return &MasterKeyProvider{keySigner: signer}, nil
}

// IssueJWT 签发自定义声明的令牌
func (p *MasterKeyProvider) IssueJWT(claims crypto.Claims) (string, error) {
	return p.issueJWT(claims, "")
}

var _ interfaces.AuthProvider = (*MasterKeyProvider)(nil)
