// Package resolver 将资源 URI 解析为具体服务器上的请求，并提交签名文档
//
// 解析顺序：显式域名 > 实体所属域（owner 为 CCID）> 服务器域（owner 为 CSID）
// > owner 本身作为域名。所有读取都经过 fetch 引擎的缓存与熔断。
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/fetch"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
	"github.com/dep2p/go-concrnt/pkg/lib/crypto"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
	"github.com/dep2p/go-concrnt/pkg/types"
)

var logger = log.Logger("core/resolver")

// serverKeyPrefix 服务描述的缓存键前缀
const serverKeyPrefix = "domain:"

// errNoDefaultHost 需要默认服务器但未配置
var errNoDefaultHost = fmt.Errorf("%w: no default host", types.ErrDomainNotFound)

// Resolver 资源解析器
type Resolver struct {
	engine *fetch.Engine
	auth   interfaces.AuthProvider
	cfg    config.ResolverConfig
	clock  clock.Clock
}

// Option 解析器选项
type Option func(*Resolver)

// WithClock 设置时钟（文档创建时间）
func WithClock(c clock.Clock) Option {
	return func(r *Resolver) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithAuth 设置签名使用的认证提供者，缺省使用引擎的提供者
func WithAuth(auth interfaces.AuthProvider) Option {
	return func(r *Resolver) {
		if auth != nil {
			r.auth = auth
		}
	}
}

// New 创建解析器
func New(eng *fetch.Engine, cfg config.ResolverConfig, opts ...Option) *Resolver {
	r := &Resolver{
		engine: eng,
		auth:   eng.Auth(),
		cfg:    cfg,
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Engine 返回底层请求引擎
func (r *Resolver) Engine() *fetch.Engine {
	return r.engine
}

// ============================================================================
//                              服务描述
// ============================================================================

// GetServer 获取域名的服务描述
//
// 匿名请求，缓存键为 domain:<remote>。404 返回 ErrDomainNotFound。
func (r *Resolver) GetServer(ctx context.Context, remote string, opts ...fetch.Option) (*types.Server, error) {
	if remote == "" {
		remote = r.engine.DefaultHost()
	}
	if remote == "" {
		return nil, errNoDefaultHost
	}

	opts = append(opts, fetch.WithoutAuth())
	raw, err := r.engine.FetchWithCache(ctx, remote, r.cfg.WellKnownPath, serverKeyPrefix+remote, opts...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", remote, types.ErrDomainNotFound)
	}
	server, err := fetch.Decode[types.Server](raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", remote, err)
	}
	return &server, nil
}

// GetServerByCSID 通过默认服务器查询 CSID 对应的服务描述
func (r *Resolver) GetServerByCSID(ctx context.Context, csid string) (*types.Server, error) {
	if !types.IsCSID(csid) {
		return nil, fmt.Errorf("%w: %q is not a csid", types.ErrInvalidURI, csid)
	}
	host := r.engine.DefaultHost()
	if host == "" {
		return nil, errNoDefaultHost
	}
	server, err := GetResource[types.Server](ctx, r, "cc://"+csid, host)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, fmt.Errorf("server %s: %w", csid, types.ErrNotFound)
	}
	return server, nil
}

// InvalidateServer 删除缓存的服务描述
func (r *Resolver) InvalidateServer(ctx context.Context, remote string) error {
	return r.engine.Invalidate(ctx, serverKeyPrefix+remote)
}

// ServerOnline 检查服务器是否在线
//
// 探测窗口内确认过的服务器直接返回 true，否则绕过缓存请求一次服务描述。
func (r *Resolver) ServerOnline(ctx context.Context, host string) bool {
	if r.engine.RecentlyOnline(host) {
		return true
	}
	if _, err := r.GetServer(ctx, host, fetch.WithCacheMode(fetch.CacheNone)); err != nil {
		r.engine.ForgetOnline(host)
		logger.Debug("服务器探测失败", "host", host, "error", err)
		return false
	}
	r.engine.ConfirmOnline(host)
	return true
}

// ============================================================================
//                              实体
// ============================================================================

// GetEntity 获取实体记录
//
// hint 为空时向默认服务器查询。开启校验时归属签名必须由实体本身签发。
func (r *Resolver) GetEntity(ctx context.Context, ccid, hint string) (*types.Entity, error) {
	if !types.IsCCID(ccid) {
		return nil, fmt.Errorf("%w: %q is not a ccid", types.ErrInvalidURI, ccid)
	}
	host := hint
	if host == "" {
		host = r.engine.DefaultHost()
	}
	if host == "" {
		return nil, errNoDefaultHost
	}

	entity, err := GetResource[types.Entity](ctx, r, "cc://"+ccid, host)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("entity %s: %w", ccid, types.ErrNotFound)
	}
	if entity.CCID != ccid {
		return nil, fmt.Errorf("%w: asked for %s, got %s", types.ErrInvalidDocument, ccid, entity.CCID)
	}
	if r.cfg.VerifyEntities {
		if err := VerifyEntity(*entity); err != nil {
			logger.Warn("实体归属签名无效", "ccid", log.TruncateID(ccid, 12), "error", err)
			return nil, err
		}
	}
	return entity, nil
}

// InvalidateEntity 删除缓存的实体记录
func (r *Resolver) InvalidateEntity(ctx context.Context, ccid string) error {
	return r.engine.Invalidate(ctx, "cc://"+ccid)
}

// VerifyEntity 校验实体的归属文档由实体本身签名
func VerifyEntity(entity types.Entity) error {
	var header struct {
		Author string `json:"author"`
	}
	if err := json.Unmarshal([]byte(entity.AffiliationDocument), &header); err != nil {
		return fmt.Errorf("%w: affiliation: %v", types.ErrInvalidSignature, err)
	}
	if header.Author != entity.CCID {
		return fmt.Errorf("%w: affiliation author %s, entity %s", types.ErrInvalidSignature, header.Author, entity.CCID)
	}
	err := crypto.VerifyDocument(types.SignedDocument{
		Document: entity.AffiliationDocument,
		Proof: types.Proof{
			Type:      types.ProofTypeECRecoverDirect,
			Signature: entity.AffiliationSignature,
		},
	})
	if err != nil {
		if errors.Is(err, types.ErrInvalidSignature) {
			return err
		}
		return fmt.Errorf("%w: %v", types.ErrInvalidSignature, err)
	}
	return nil
}

// ============================================================================
//                              资源
// ============================================================================

// ResolveDomain 返回 uri 所在的服务器域名
func (r *Resolver) ResolveDomain(ctx context.Context, uri, hint string) (string, error) {
	owner, _, err := ParseURI(uri)
	if err != nil {
		return "", err
	}
	return r.resolveOwner(ctx, owner, hint)
}

func (r *Resolver) resolveOwner(ctx context.Context, owner, hint string) (string, error) {
	switch {
	case hint != "":
		return hint, nil
	case types.IsCCID(owner):
		entity, err := r.GetEntity(ctx, owner, "")
		if err != nil {
			return "", err
		}
		return entity.Domain, nil
	case types.IsCSID(owner):
		server, err := r.GetServerByCSID(ctx, owner)
		if err != nil {
			return "", err
		}
		return server.Domain, nil
	default:
		return owner, nil
	}
}

// GetResourceRaw 读取资源原文
//
// 缓存键为 uri 本身。返回 (nil, nil) 表示资源不存在。
func (r *Resolver) GetResourceRaw(ctx context.Context, uri, domain string, opts ...fetch.Option) (json.RawMessage, error) {
	owner, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	fqdn, err := r.resolveOwner(ctx, owner, domain)
	if err != nil {
		return nil, err
	}
	server, err := r.GetServer(ctx, fqdn)
	if err != nil {
		return nil, err
	}
	ep, ok := server.Endpoint(types.APIResource)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", fqdn, types.APIResource, types.ErrEndpointNotFound)
	}

	path := expandTemplate(ep.Template, uri, owner, key)
	return r.engine.FetchWithCache(ctx, fqdn, path, uri, opts...)
}

// InvalidateResource 删除缓存的资源
func (r *Resolver) InvalidateResource(ctx context.Context, uri string) error {
	return r.engine.Invalidate(ctx, uri)
}

// GetResource 读取并解码资源，返回 (nil, nil) 表示资源不存在
func GetResource[T any](ctx context.Context, r *Resolver, uri, domain string, opts ...fetch.Option) (*T, error) {
	raw, err := r.GetResourceRaw(ctx, uri, domain, opts...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	v, err := fetch.Decode[T](raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	return &v, nil
}
