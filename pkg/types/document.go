package types

import "fmt"

// ============================================================================
//                              Document
// ============================================================================

// 常用 schema 与证明类型
const (
	// ProofTypeECRecoverDirect 直接由签名恢复签名者地址的证明类型
	ProofTypeECRecoverDirect = "concrnt-ecrecover-direct"

	// SchemaAffiliation 域归属声明
	SchemaAffiliation = "https://schema.concrnt.net/affiliation.json"

	// SchemaEmptyTimeline 空时间线
	SchemaEmptyTimeline = "https://schema.concrnt.world/t/empty.json"

	// ContentTypeChunkline 时间线内容类型
	ContentTypeChunkline = "application/chunkline+json"

	// HomeTimelineKey 个人主时间线的资源键
	HomeTimelineKey = "world.concrnt.t-home"
)

// Document 带 schema 标记的签名文档
//
// Author 必须等于签名者地址；签名覆盖序列化后的原始字节。
type Document[T any] struct {
	Key         string   `json:"key,omitempty"`
	ContentType string   `json:"contentType,omitempty"`
	Schema      string   `json:"schema"`
	Value       T        `json:"value"`
	Author      string   `json:"author"`
	Owner       string   `json:"owner,omitempty"`
	CreatedAt   Time     `json:"createdAt"`
	MemberOf    []string `json:"memberOf,omitempty"`
}

// Validate 检查文档必填字段
func (d Document[T]) Validate() error {
	if d.Schema == "" {
		return fmt.Errorf("%w: missing schema", ErrInvalidDocument)
	}
	if !IsCCID(d.Author) {
		return fmt.Errorf("%w: author %q is not a ccid", ErrInvalidDocument, d.Author)
	}
	return nil
}

// Proof 签名证明
type Proof struct {
	Type      string `json:"type"`
	Signature string `json:"signature"`
	Key       string `json:"key,omitempty"`
}

// SignedDocument 提交信封
//
// Document 保存签名时的原始 JSON 文本，不做二次序列化。
type SignedDocument struct {
	Document string `json:"document"`
	Proof    Proof  `json:"proof"`
}

// Affiliation 域归属值
type Affiliation struct {
	Domain string `json:"domain"`
}

// EmptyValue 无内容文档值
type EmptyValue struct{}
