package resolver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dep2p/go-concrnt/pkg/types"
)

// URIScheme 资源 URI 的协议
const URIScheme = "cc"

// ParseURI 解析 cc://<owner><key>
//
// owner 可以是 CCID、CSID 或域名；key 保留前导 '/'，可以为空。
func ParseURI(uri string) (owner, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", types.ErrInvalidURI, err)
	}
	if u.Scheme != URIScheme {
		return "", "", fmt.Errorf("%w: scheme %q", types.ErrInvalidURI, u.Scheme)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("%w: missing owner in %q", types.ErrInvalidURI, uri)
	}
	return u.Host, u.Path, nil
}

// expandTemplate 替换资源端点模板中的 {uri}、{owner}、{key}
func expandTemplate(template, uri, owner, key string) string {
	return strings.NewReplacer(
		"{uri}", url.PathEscape(uri),
		"{owner}", owner,
		"{key}", key,
	).Replace(template)
}

// expandParams 替换 API 端点模板中的 {name}
func expandParams(template string, params map[string]string) string {
	if len(params) == 0 {
		return template
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
