package identity

import (
	"fmt"

	"github.com/dep2p/go-concrnt/pkg/types"
)

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrWordCount 助记词数量不是 12
	ErrWordCount = fmt.Errorf("%w: mnemonic must have 12 words", types.ErrInvalidIdentity)

	// ErrUnknownWord 助记词不在词表中
	ErrUnknownWord = fmt.Errorf("%w: unknown mnemonic word", types.ErrInvalidIdentity)

	// ErrChecksum 助记词校验和错误
	ErrChecksum = fmt.Errorf("%w: mnemonic checksum mismatch", types.ErrInvalidIdentity)

	// ErrInvalidEntropy 熵长度不合法
	ErrInvalidEntropy = fmt.Errorf("%w: invalid entropy", types.ErrInvalidIdentity)

	// ErrMalformedSubKey 子密钥文本格式错误
	ErrMalformedSubKey = fmt.Errorf("%w: malformed subkey", types.ErrInvalidIdentity)

	// ErrIdentityMismatch 存储的身份字段互相矛盾
	ErrIdentityMismatch = fmt.Errorf("%w: stored identity is inconsistent", types.ErrInvalidIdentity)
)
