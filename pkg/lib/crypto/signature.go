package crypto

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/dep2p/go-concrnt/pkg/types"
)

// 签名常量
const (
	// PrivateKeySize 私钥字节数
	PrivateKeySize = 32

	// SignatureSize r||s||v 字节数
	SignatureSize = 65

	// SignatureHexLen 十六进制签名长度
	SignatureHexLen = SignatureSize * 2

	// compactHeader SignCompact 输出中压缩公钥的头字节基数
	compactHeader = 27 + 4
)

// ============================================================================
//                              哈希
// ============================================================================

// Keccak256 计算 keccak256 摘要（以太坊变体，非 NIST SHA3）
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// ============================================================================
//                              密钥
// ============================================================================

// ParsePrivateKey 解析十六进制私钥，可带 0x 前缀
func ParsePrivateKey(hexKey string) (*secp256k1.PrivateKey, error) {
	raw, err := decodeHex(hexKey)
	if err != nil || len(raw) != PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	key := secp256k1.PrivKeyFromBytes(raw)
	if key.Key.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return key, nil
}

// ParsePublicKey 解析十六进制公钥（压缩或未压缩）
func ParsePublicKey(hexKey string) (*secp256k1.PublicKey, error) {
	raw, err := decodeHex(hexKey)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return pub, nil
}

// PrivateKeyHex 私钥的十六进制表示
func PrivateKeyHex(key *secp256k1.PrivateKey) string {
	return hex.EncodeToString(key.Serialize())
}

// PublicKeyHex 压缩公钥的十六进制表示
func PublicKeyHex(pub *secp256k1.PublicKey) string {
	return hex.EncodeToString(pub.SerializeCompressed())
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	return hex.DecodeString(s)
}

// ============================================================================
//                              签名与恢复
// ============================================================================

// Sign 使用十六进制私钥签名 payload
func Sign(privateKeyHex string, payload []byte) (string, error) {
	key, err := ParsePrivateKey(privateKeyHex)
	if err != nil {
		return "", err
	}
	return SignWithKey(key, payload), nil
}

// SignWithKey 使用私钥签名 payload，返回 r||s||v 十六进制
func SignWithKey(key *secp256k1.PrivateKey, payload []byte) string {
	compact := ecdsa.SignCompact(key, Keccak256(payload), true)

	// compact = header || r || s，header = 27 + 4 + recid
	out := make([]byte, SignatureSize)
	copy(out, compact[1:])
	out[64] = compact[0] - compactHeader
	return hex.EncodeToString(out)
}

// RecoverPublicKey 由签名恢复签名者公钥
//
// v 接受 0/1 以及以太坊风格的 27/28。
func RecoverPublicKey(payload []byte, signature string) (*secp256k1.PublicKey, error) {
	raw, err := decodeHex(signature)
	if err != nil || len(raw) != SignatureSize {
		return nil, ErrMalformedSignature
	}
	v := raw[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return nil, ErrMalformedSignature
	}

	compact := make([]byte, SignatureSize)
	compact[0] = compactHeader + v
	copy(compact[1:], raw[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, Keccak256(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return pub, nil
}

// RecoverAddress 由签名恢复指定 hrp 的签名者地址
func RecoverAddress(payload []byte, signature, hrp string) (string, error) {
	pub, err := RecoverPublicKey(payload, signature)
	if err != nil {
		return "", err
	}
	return PubkeyToAddress(hrp, pub)
}

// VerifySignature 验证签名者是否为 address
//
// 恢复出的公钥按 address 的 hrp 重新派生地址后比较。
func VerifySignature(payload []byte, signature, address string) error {
	hrp, _, err := DecodeAddress(address)
	if err != nil {
		return err
	}
	signer, err := RecoverAddress(payload, signature, hrp)
	if err != nil {
		return err
	}
	if signer != address {
		return fmt.Errorf("%w: got %s, want %s", ErrSignerMismatch, signer, address)
	}
	return nil
}

// VerifyDocument 验证提交信封的签名与文档作者一致
func VerifyDocument(doc types.SignedDocument) error {
	var header struct {
		Author string `json:"author"`
	}
	if err := json.Unmarshal([]byte(doc.Document), &header); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidDocument, err)
	}
	if header.Author == "" {
		return fmt.Errorf("%w: missing author", types.ErrInvalidDocument)
	}
	return VerifySignature([]byte(doc.Document), doc.Proof.Signature, header.Author)
}
