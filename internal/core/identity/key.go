package identity

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/dep2p/go-concrnt/pkg/lib/crypto"
	"github.com/dep2p/go-concrnt/pkg/types"
)

// KeyPair 十六进制形式的 secp256k1 密钥对
type KeyPair struct {
	PrivateKey string
	PublicKey  string

	key *secp256k1.PrivateKey
}

// LoadKey 从十六进制私钥加载密钥对
func LoadKey(privateKeyHex string) (*KeyPair, error) {
	key, err := crypto.ParsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}
	return newKeyPair(key), nil
}

// GenerateKey 生成随机密钥对
func GenerateKey() (*KeyPair, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return newKeyPair(key), nil
}

func newKeyPair(key *secp256k1.PrivateKey) *KeyPair {
	return &KeyPair{
		PrivateKey: crypto.PrivateKeyHex(key),
		PublicKey:  crypto.PublicKeyHex(key.PubKey()),
		key:        key,
	}
}

// Key 返回私钥
func (k *KeyPair) Key() *secp256k1.PrivateKey {
	return k.key
}

// CCID 以实体地址形式表示公钥
func (k *KeyPair) CCID() (string, error) {
	return crypto.PubkeyToAddress(types.PrefixCCID, k.key.PubKey())
}

// CKID 以子密钥地址形式表示公钥
func (k *KeyPair) CKID() (string, error) {
	return crypto.PubkeyToAddress(types.PrefixCKID, k.key.PubKey())
}

// Sign 签名 payload
func (k *KeyPair) Sign(payload []byte) string {
	return crypto.SignWithKey(k.key, payload)
}
