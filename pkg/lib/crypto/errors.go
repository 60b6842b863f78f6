// Package crypto 提供 Concrnt 密码学工具
package crypto

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-concrnt/pkg/types"
)

// ============================================================================
//                              错误定义
// ============================================================================

// 密钥相关错误
var (
	// ErrInvalidPrivateKey 私钥无效
	ErrInvalidPrivateKey = fmt.Errorf("%w: private key", types.ErrInvalidIdentity)

	// ErrInvalidPublicKey 公钥无效
	ErrInvalidPublicKey = fmt.Errorf("%w: public key", types.ErrInvalidIdentity)

	// ErrInvalidAddress 地址无效
	ErrInvalidAddress = errors.New("invalid address")
)

// 签名相关错误
var (
	// ErrMalformedSignature 签名格式错误
	ErrMalformedSignature = fmt.Errorf("%w: malformed", types.ErrInvalidSignature)

	// ErrSignerMismatch 签名者与声明地址不一致
	ErrSignerMismatch = fmt.Errorf("%w: signer mismatch", types.ErrInvalidSignature)
)

// 令牌相关错误
var (
	// ErrMalformedJWT 令牌格式错误
	ErrMalformedJWT = errors.New("malformed jwt")

	// ErrJWTExpired 令牌已过期
	ErrJWTExpired = errors.New("jwt expired")

	// ErrUnsupportedAlgorithm 不支持的签名算法
	ErrUnsupportedAlgorithm = errors.New("unsupported jwt algorithm")
)
