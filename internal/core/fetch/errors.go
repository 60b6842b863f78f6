package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"

	"github.com/dep2p/go-concrnt/internal/core/metrics"
	"github.com/dep2p/go-concrnt/pkg/types"
)

// maxErrorBody 错误响应体保留的最大长度
const maxErrorBody = 512

// statusKind 将非 2xx 状态码映射为错误类别
func statusKind(status int) error {
	switch status {
	case http.StatusForbidden, http.StatusUnauthorized:
		return types.ErrPermissionDenied
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return types.ErrServerOffline
	default:
		return types.ErrTransport
	}
}

// isUnreachable 检查传输错误是否表示服务器不可达
func isUnreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound || !dnsErr.IsTimeout
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

// transportKind 将 client.Do 的错误映射为错误类别
func transportKind(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return types.ErrTimeout
	case isUnreachable(err):
		return types.ErrServerOffline
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return types.ErrTimeout
		}
		return types.ErrTransport
	}
}

// outcome 返回错误对应的指标标签
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, types.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, types.ErrPermissionDenied):
		return metrics.OutcomeDenied
	case errors.Is(err, types.ErrServerOffline):
		return metrics.OutcomeOffline
	case errors.Is(err, types.ErrTimeout):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}

// truncateBody 截断错误响应体
func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
