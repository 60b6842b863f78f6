package crypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // 地址格式要求 ripemd160

	"github.com/dep2p/go-concrnt/pkg/types"
)

// AddressHashSize 地址哈希字节数
const AddressHashSize = 20

// Hash160 计算 ripemd160(sha256(data))
func Hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// PubkeyToAddress 由公钥派生 bech32 地址
func PubkeyToAddress(hrp string, pub *secp256k1.PublicKey) (string, error) {
	if pub == nil {
		return "", ErrInvalidPublicKey
	}
	conv, err := bech32.ConvertBits(Hash160(pub.SerializeCompressed()), 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, conv)
}

// ComputeCCID 实体地址
func ComputeCCID(pub *secp256k1.PublicKey) (string, error) {
	return PubkeyToAddress(types.PrefixCCID, pub)
}

// ComputeCSID 服务器地址
func ComputeCSID(pub *secp256k1.PublicKey) (string, error) {
	return PubkeyToAddress(types.PrefixCSID, pub)
}

// ComputeCKID 子密钥地址
func ComputeCKID(pub *secp256k1.PublicKey) (string, error) {
	return PubkeyToAddress(types.PrefixCKID, pub)
}

// DecodeAddress 解码地址，返回 hrp 与 20 字节哈希
func DecodeAddress(address string) (string, []byte, error) {
	hrp, data, err := bech32.Decode(address)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	hash, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(hash) != AddressHashSize {
		return "", nil, fmt.Errorf("%w: hash length %d", ErrInvalidAddress, len(hash))
	}
	return hrp, hash, nil
}

// ConvertAddress 将地址转换为另一 hrp 下的同一哈希
func ConvertAddress(address, hrp string) (string, error) {
	_, hash, err := DecodeAddress(address)
	if err != nil {
		return "", err
	}
	conv, err := bech32.ConvertBits(hash, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, conv)
}
