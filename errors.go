package concrnt

import "github.com/dep2p/go-concrnt/pkg/types"

// 公共错误定义
//
// 与 pkg/types 中的哨兵错误相同，可直接用 errors.Is 判定。
var (
	// ────────────────────────────────────────────────────────────────────────
	// 网络相关错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrServerOffline 服务器离线（熔断中、网关错误或不可达）
	ErrServerOffline = types.ErrServerOffline

	// ErrNotFound 资源不存在
	ErrNotFound = types.ErrNotFound

	// ErrPermissionDenied 无访问权限
	ErrPermissionDenied = types.ErrPermissionDenied

	// ErrTimeout 请求超时
	ErrTimeout = types.ErrTimeout

	// ErrTransport 其他传输错误
	ErrTransport = types.ErrTransport

	// ErrCacheMiss 仅缓存模式下未命中
	ErrCacheMiss = types.ErrCacheMiss

	// ────────────────────────────────────────────────────────────────────────
	// 解析与提交错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrDomainNotFound 域名没有服务描述
	ErrDomainNotFound = types.ErrDomainNotFound

	// ErrEndpointNotFound 服务描述缺少端点
	ErrEndpointNotFound = types.ErrEndpointNotFound

	// ErrInvalidURI 无效的资源 URI
	ErrInvalidURI = types.ErrInvalidURI

	// ErrInvalidDocument 文档无法解码或校验失败
	ErrInvalidDocument = types.ErrInvalidDocument

	// ErrCommitFailed 文档提交失败
	ErrCommitFailed = types.ErrCommitFailed

	// ────────────────────────────────────────────────────────────────────────
	// 身份相关错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrInvalidIdentity 助记词或密钥无效
	ErrInvalidIdentity = types.ErrInvalidIdentity

	// ErrInvalidSignature 签名无效或与地址不符
	ErrInvalidSignature = types.ErrInvalidSignature

	// ErrNotImplemented 当前身份不支持该操作
	ErrNotImplemented = types.ErrNotImplemented
)

// FetchError 携带服务器与状态码的网络错误
type FetchError = types.FetchError

// IsServerOffline 检查是否为服务器离线错误
func IsServerOffline(err error) bool { return types.IsServerOffline(err) }

// IsNotFound 检查是否为资源不存在错误
func IsNotFound(err error) bool { return types.IsNotFound(err) }

// IsPermissionDenied 检查是否为权限错误
func IsPermissionDenied(err error) bool { return types.IsPermissionDenied(err) }

// IsTimeout 检查是否为超时错误
func IsTimeout(err error) bool { return types.IsTimeout(err) }
