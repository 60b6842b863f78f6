package identity

import (
	"fmt"
	"strings"

	"github.com/dep2p/go-concrnt/pkg/types"
)

// subKeyPrefix 子密钥文本的固定前缀
const subKeyPrefix = "concrnt-subkey"

// SubKey 委托子密钥
//
// CCID 为委托方实体地址，CKID 由子密钥公钥派生。
type SubKey struct {
	*KeyPair

	CCID   string
	CKID   string
	Domain string
	Name   string
}

// LoadSubKey 解析子密钥文本
//
//	concrnt-subkey <privatekey-hex> <ccid>@<domain> <name>
func LoadSubKey(secret string) (*SubKey, error) {
	parts := strings.SplitN(strings.TrimSpace(secret), " ", 4)
	if len(parts) != 4 || parts[0] != subKeyPrefix {
		return nil, ErrMalformedSubKey
	}

	kp, err := LoadKey(parts[1])
	if err != nil {
		return nil, err
	}

	ccid, domain, ok := strings.Cut(parts[2], "@")
	if !ok || !types.IsCCID(ccid) || domain == "" {
		return nil, fmt.Errorf("%w: owner %q", ErrMalformedSubKey, parts[2])
	}

	ckid, err := kp.CKID()
	if err != nil {
		return nil, err
	}

	return &SubKey{
		KeyPair: kp,
		CCID:    ccid,
		CKID:    ckid,
		Domain:  domain,
		Name:    parts[3],
	}, nil
}

// NewSubKey 为实体生成新的子密钥
func NewSubKey(ccid, domain, name string) (*SubKey, error) {
	if !types.IsCCID(ccid) || domain == "" || name == "" {
		return nil, ErrMalformedSubKey
	}
	kp, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	ckid, err := kp.CKID()
	if err != nil {
		return nil, err
	}
	return &SubKey{KeyPair: kp, CCID: ccid, CKID: ckid, Domain: domain, Name: name}, nil
}

// String 以分发格式输出子密钥
func (s *SubKey) String() string {
	return fmt.Sprintf("%s %s %s@%s %s", subKeyPrefix, s.PrivateKey, s.CCID, s.Domain, s.Name)
}
