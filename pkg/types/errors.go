// Package types 定义 Concrnt 客户端的基础类型
//
// 本文件定义所有公共错误类型。
package types

import (
	"context"
	"errors"
	"fmt"
)

// ============================================================================
//                              网络相关错误
// ============================================================================

var (
	// ErrServerOffline 服务器离线（熔断中、5xx 网关错误或不可达）
	ErrServerOffline = errors.New("server offline")

	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied 无访问权限
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTimeout 请求超时
	ErrTimeout = errors.New("request timeout")

	// ErrTransport 其他传输错误（非预期状态码、连接中断等）
	ErrTransport = errors.New("transport error")

	// ErrCacheMiss 仅缓存模式下未命中
	ErrCacheMiss = errors.New("cache not found")
)

// ============================================================================
//                              解析相关错误
// ============================================================================

var (
	// ErrDomainNotFound 域名没有服务描述
	ErrDomainNotFound = fmt.Errorf("domain %w", ErrNotFound)

	// ErrEndpointNotFound 服务描述缺少端点
	ErrEndpointNotFound = errors.New("endpoint not found")

	// ErrInvalidURI 无效的资源 URI
	ErrInvalidURI = errors.New("invalid uri")

	// ErrInvalidDocument 文档无法解码或校验失败
	ErrInvalidDocument = errors.New("invalid document")

	// ErrCommitFailed 文档提交失败
	ErrCommitFailed = errors.New("commit failed")
)

// ============================================================================
//                              身份相关错误
// ============================================================================

var (
	// ErrInvalidIdentity 助记词或密钥无效
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrInvalidSignature 签名无效或与地址不符
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrNotImplemented 当前身份不支持该操作
	ErrNotImplemented = errors.New("not implemented")
)

// ============================================================================
//                              FetchError
// ============================================================================

// FetchError 携带上下文的网络错误
//
// Kind 是上面的某个哨兵错误，errors.Is 可同时匹配 Kind 和 Err。
type FetchError struct {
	Kind   error
	Host   string
	Status int
	Body   string
	Err    error
}

// Error 实现 error 接口
func (e *FetchError) Error() string {
	msg := e.Kind.Error()
	if e.Host != "" {
		msg = fmt.Sprintf("%s: %s", e.Host, msg)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap 返回 Kind 与底层错误
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewFetchError 创建 FetchError
func NewFetchError(kind error, host string, err error) *FetchError {
	return &FetchError{Kind: kind, Host: host, Err: err}
}

// OfflineError 创建服务器离线错误
func OfflineError(host string) *FetchError {
	return &FetchError{Kind: ErrServerOffline, Host: host}
}

// StatusError 创建带状态码的错误
func StatusError(kind error, host string, status int, body string) *FetchError {
	return &FetchError{Kind: kind, Host: host, Status: status, Body: body}
}

// WaitError 归类调用方等待共享请求时上下文结束的错误
//
// 截止时间到达归为 ErrTimeout，保留 context.DeadlineExceeded 供 errors.Is 匹配；
// 调用方主动取消原样返回。
func WaitError(ctx context.Context, host string) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return NewFetchError(ErrTimeout, host, err)
	}
	return err
}

// ============================================================================
//                              错误判定
// ============================================================================

// IsServerOffline 检查是否为服务器离线错误
func IsServerOffline(err error) bool {
	return errors.Is(err, ErrServerOffline)
}

// IsNotFound 检查是否为资源不存在错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPermissionDenied 检查是否为权限错误
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsTimeout 检查是否为超时错误
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
