package crypto

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/google/uuid"
)

// JWT 常量
const (
	// JWTAlgorithm 签名算法标识
	JWTAlgorithm = "CONCRNT"

	// JWTType 令牌类型
	JWTType = "JWT"

	// DefaultJWTLifetime 默认有效期
	DefaultJWTLifetime = 5 * time.Minute
)

var b64 = base64.RawURLEncoding

// JWTHeader 令牌头
type JWTHeader struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
	KeyID     string `json:"kid,omitempty"`
}

// Claims 令牌声明
//
// IssuedAt / ExpiresAt 为十进制 Unix 秒字符串。
type Claims struct {
	Issuer    string `json:"iss,omitempty"`
	Subject   string `json:"sub,omitempty"`
	Audience  string `json:"aud,omitempty"`
	IssuedAt  string `json:"iat,omitempty"`
	ExpiresAt string `json:"exp,omitempty"`
	JWTID     string `json:"jti,omitempty"`
}

// Expiry 解析过期时间
func (c Claims) Expiry() (time.Time, bool) {
	return parseUnix(c.ExpiresAt)
}

// JWTOptions 签发选项
type JWTOptions struct {
	// KeyID 子密钥签发时填写 CKID
	KeyID string

	// Now 签发时间，零值表示当前时间
	Now time.Time

	// Lifetime 有效期，零值表示 DefaultJWTLifetime
	Lifetime time.Duration
}

// ParsedJWT 解析后的令牌
type ParsedJWT struct {
	Header       JWTHeader
	Claims       Claims
	SigningInput string
	Signature    []byte
}

// IssueJWT 签发令牌
//
// 未填写的 jti / iat / exp 会自动补齐。
func IssueJWT(key *secp256k1.PrivateKey, claims Claims, opts JWTOptions) (string, error) {
	if key == nil {
		return "", ErrInvalidPrivateKey
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultJWTLifetime
	}

	if claims.JWTID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", err
		}
		claims.JWTID = id.String()
	}
	if claims.IssuedAt == "" {
		claims.IssuedAt = strconv.FormatInt(now.Unix(), 10)
	}
	if claims.ExpiresAt == "" {
		claims.ExpiresAt = strconv.FormatInt(now.Add(lifetime).Unix(), 10)
	}

	header, err := json.Marshal(JWTHeader{Algorithm: JWTAlgorithm, Type: JWTType, KeyID: opts.KeyID})
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	input := b64.EncodeToString(header) + "." + b64.EncodeToString(payload)
	sig, err := hex.DecodeString(SignWithKey(key, []byte(input)))
	if err != nil {
		return "", err
	}
	return input + "." + b64.EncodeToString(sig), nil
}

// ParseJWT 解析令牌，不做签名校验
func ParseJWT(token string) (*ParsedJWT, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedJWT
	}

	var parsed ParsedJWT
	if err := decodeSegment(parts[0], &parsed.Header); err != nil {
		return nil, err
	}
	if err := decodeSegment(parts[1], &parsed.Claims); err != nil {
		return nil, err
	}
	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrMalformedJWT, err)
	}
	parsed.Signature = sig
	parsed.SigningInput = parts[0] + "." + parts[1]
	return &parsed, nil
}

// CheckJWTIsValid 本地检查令牌是否仍可使用
//
// margin 为提前刷新余量：剩余有效期不足 margin 视为失效。
func CheckJWTIsValid(token string, now time.Time, margin time.Duration) bool {
	parsed, err := ParseJWT(token)
	if err != nil {
		return false
	}
	exp, ok := parsed.Claims.Expiry()
	if !ok {
		return false
	}
	return now.Add(margin).Before(exp)
}

// VerifyJWT 校验令牌签名与有效期
//
// 带 kid 的令牌由子密钥签发，签名者必须是 kid；否则必须是 iss。
func VerifyJWT(token string, now time.Time) (*ParsedJWT, error) {
	parsed, err := ParseJWT(token)
	if err != nil {
		return nil, err
	}
	if parsed.Header.Algorithm != JWTAlgorithm {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, parsed.Header.Algorithm)
	}
	exp, ok := parsed.Claims.Expiry()
	if !ok || !now.Before(exp) {
		return nil, ErrJWTExpired
	}

	signer := parsed.Claims.Issuer
	if parsed.Header.KeyID != "" {
		signer = parsed.Header.KeyID
	}
	sigHex := hex.EncodeToString(parsed.Signature)
	if err := VerifySignature([]byte(parsed.SigningInput), sigHex, signer); err != nil {
		return nil, err
	}
	return parsed, nil
}

func decodeSegment(seg string, v any) error {
	raw, err := b64.DecodeString(seg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJWT, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJWT, err)
	}
	return nil
}

func parseUnix(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(n, 0), true
}
