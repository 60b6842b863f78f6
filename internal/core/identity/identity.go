package identity

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip39"

	"github.com/dep2p/go-concrnt/pkg/lib/crypto"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
)

var logger = log.Logger("core/identity")

// EntropyBits 12 个助记词对应的熵位数
const EntropyBits = 128

// DerivationPath m/44'/118'/0'/0/0
var DerivationPath = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 118,
	hdkeychain.HardenedKeyStart + 0,
	0,
	0,
}

// Identity 由助记词确定的实体身份
//
// 生成后不可变。PrivateKey / PublicKey 为十六进制，PublicKey 为压缩格式。
type Identity struct {
	Mnemonic   string `json:"mnemonic"`
	MnemonicJa string `json:"mnemonic_ja"`
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	CCID       string `json:"CCID"`
}

// GenerateIdentity 生成新身份
func GenerateIdentity() (*Identity, error) {
	entropy, err := bip39.NewEntropy(EntropyBits)
	if err != nil {
		return nil, fmt.Errorf("generate entropy: %w", err)
	}
	return NewIdentityFromEntropy(entropy)
}

// NewIdentityFromEntropy 由给定熵生成身份
func NewIdentityFromEntropy(entropy []byte) (*Identity, error) {
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntropy, err)
	}
	return LoadIdentity(mnemonic)
}

// LoadIdentity 从助记词加载身份
//
// 接受英文或日文助记词，输入先做 NFKD 规范化。
// 任何错误都不会返回部分结果。
func LoadIdentity(mnemonic string) (*Identity, error) {
	en, err := ToEnglish(mnemonic)
	if err != nil {
		return nil, err
	}
	ja, err := ToJapanese(en)
	if err != nil {
		return nil, err
	}

	seed, err := bip39.NewSeedWithErrorChecking(en, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChecksum, err)
	}

	key, err := deriveKey(seed)
	if err != nil {
		return nil, err
	}

	ccid, err := crypto.ComputeCCID(key.PubKey())
	if err != nil {
		return nil, err
	}

	logger.Debug("身份加载成功", "ccid", ccid)
	return &Identity{
		Mnemonic:   en,
		MnemonicJa: ja,
		PrivateKey: crypto.PrivateKeyHex(key),
		PublicKey:  crypto.PublicKeyHex(key.PubKey()),
		CCID:       ccid,
	}, nil
}

// deriveKey 沿 DerivationPath 派生私钥
func deriveKey(seed []byte) (*secp256k1.PrivateKey, error) {
	node, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("derive master: %w", err)
	}
	for _, idx := range DerivationPath {
		node, err = node.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
	}
	priv, err := node.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("derive private key: %w", err)
	}
	return secp256k1.PrivKeyFromBytes(priv.Serialize()), nil
}

// KeyPair 返回身份的密钥对
func (id *Identity) KeyPair() (*KeyPair, error) {
	return LoadKey(id.PrivateKey)
}

// Validate 检查私钥、公钥与地址一致
func (id *Identity) Validate() error {
	kp, err := id.KeyPair()
	if err != nil {
		return err
	}
	ccid, err := kp.CCID()
	if err != nil {
		return err
	}
	if ccid != id.CCID || kp.PublicKey != id.PublicKey {
		return ErrIdentityMismatch
	}
	return nil
}
