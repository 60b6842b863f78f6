package types

import "fmt"

// ============================================================================
//                              服务描述
// ============================================================================

// 常用端点名称
const (
	// APIResource 资源读取端点
	APIResource = "net.concrnt.core.resource"

	// WellKnownPath 服务描述路径
	WellKnownPath = "/.well-known/concrnt"

	// CommitPath 文档提交路径
	CommitPath = "/commit"
)

// Endpoint 服务端点模板
type Endpoint struct {
	Template string   `json:"template"`
	Method   string   `json:"method"`
	Query    []string `json:"query,omitempty"`
}

// Server 服务器描述
type Server struct {
	Version   string              `json:"version"`
	Domain    string              `json:"domain"`
	CSID      string              `json:"csid"`
	Layer     string              `json:"layer"`
	Endpoints map[string]Endpoint `json:"endpoints"`
}

// Validate 检查服务描述
func (s Server) Validate() error {
	if s.Domain == "" {
		return fmt.Errorf("%w: server without domain", ErrInvalidDocument)
	}
	return nil
}

// Endpoint 按名称查找端点
func (s Server) Endpoint(name string) (Endpoint, bool) {
	ep, ok := s.Endpoints[name]
	return ep, ok
}

// Entity 实体记录
//
// AffiliationDocument 是实体签名的归属文档原文，
// AffiliationSignature 是对该原文的签名。
type Entity struct {
	CCID                 string `json:"ccid"`
	Alias                string `json:"alias,omitempty"`
	Domain               string `json:"domain"`
	Tag                  string `json:"tag"`
	AffiliationDocument  string `json:"affiliationDocument"`
	AffiliationSignature string `json:"affiliationSignature"`
	CDate                string `json:"cdate"`
}

// Validate 检查实体记录
func (e Entity) Validate() error {
	if !IsCCID(e.CCID) {
		return fmt.Errorf("%w: entity ccid %q", ErrInvalidDocument, e.CCID)
	}
	if e.Domain == "" {
		return fmt.Errorf("%w: entity %s without domain", ErrInvalidDocument, e.CCID)
	}
	return nil
}

// APIResponse 通用 API 响应包装
type APIResponse[T any] struct {
	Status  string `json:"status,omitempty"`
	Content T      `json:"content"`
	Error   string `json:"error,omitempty"`
	Next    string `json:"next,omitempty"`
	Prev    string `json:"prev,omitempty"`
}
