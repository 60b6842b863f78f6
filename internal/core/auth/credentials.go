package auth

import (
	"context"

	"github.com/dep2p/go-concrnt/internal/core/identity"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// Credentials 构造 provider 的输入
//
// 优先级：SubKey > PrivateKey > Identity > 匿名。
type Credentials struct {
	// Host 归属服务器，子密钥身份忽略此项
	Host string

	// PrivateKey 主私钥十六进制
	PrivateKey string

	// Identity 已加载的身份
	Identity *identity.Identity

	// SubKey 子密钥文本
	SubKey string
}

// Guest 是否为匿名凭据
func (c Credentials) Guest() bool {
	return c.SubKey == "" && c.PrivateKey == "" && c.Identity == nil
}

// New 按凭据创建 provider
func New(creds Credentials, opts ...Option) (interfaces.AuthProvider, error) {
	switch {
	case creds.SubKey != "":
		p, err := NewSubKeyProvider(creds.SubKey, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	case creds.PrivateKey != "":
		p, err := NewMasterKeyProvider(creds.PrivateKey, creds.Host, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	case creds.Identity != nil:
		p, err := NewMasterKeyProvider(creds.Identity.PrivateKey, creds.Host, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return NewGuestProvider(creds.Host), nil
	}
}

// LoadCredentials 从身份存储读取凭据
//
// 存储中没有身份时返回匿名凭据，Host 取存储值，缺省为 fallbackHost。
func LoadCredentials(ctx context.Context, store *identity.Store, fallbackHost string) (Credentials, error) {
	creds := Credentials{Host: fallbackHost}

	host, ok, err := store.Host(ctx)
	if err != nil {
		return creds, err
	}
	if ok && host != "" {
		creds.Host = host
	}

	sk, ok, err := store.SubKey(ctx)
	if err != nil {
		return creds, err
	}
	if ok {
		creds.SubKey = sk.String()
		return creds, nil
	}

	id, ok, err := store.Load(ctx)
	if err != nil {
		return creds, err
	}
	if ok {
		creds.Identity = id
	}
	return creds, nil
}
