package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dep2p/go-concrnt/internal/core/fetch"
	"github.com/dep2p/go-concrnt/pkg/types"
)

// APIRequest 命名端点请求
type APIRequest struct {
	// Params 替换模板中的 {name}
	Params map[string]string

	// Query 原样追加到路径后，需自带 '?'
	Query string

	// Method 为空时使用端点声明的方法，再为空时为 GET
	Method string

	// Body 请求体，非空时以 JSON 发送
	Body []byte
}

// RequestAPIRaw 按服务描述中的端点模板发送带认证的请求
func (r *Resolver) RequestAPIRaw(ctx context.Context, host, api string, req APIRequest) (json.RawMessage, error) {
	server, err := r.GetServer(ctx, host)
	if err != nil {
		return nil, err
	}
	ep, ok := server.Endpoint(api)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", server.Domain, api, types.ErrEndpointNotFound)
	}

	method := req.Method
	if method == "" {
		method = ep.Method
	}
	if method == "" {
		method = http.MethodGet
	}
	var header http.Header
	if req.Body != nil {
		header = http.Header{"Content-Type": []string{"application/json"}}
	}

	resp, err := r.engine.Do(ctx, fetch.Request{
		Method: method,
		Host:   host,
		Path:   expandParams(ep.Template, req.Params) + req.Query,
		Header: header,
		Body:   req.Body,
		Auth:   true,
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// RequestAPI 发送命名端点请求并解码响应
func RequestAPI[T any](ctx context.Context, r *Resolver, host, api string, req APIRequest) (T, error) {
	raw, err := r.RequestAPIRaw(ctx, host, api, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return fetch.Decode[T](raw)
}
