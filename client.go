package concrnt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/fetch"
	"github.com/dep2p/go-concrnt/internal/core/identity"
	"github.com/dep2p/go-concrnt/internal/core/metrics"
	"github.com/dep2p/go-concrnt/internal/core/resolver"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
	"github.com/dep2p/go-concrnt/pkg/types"
)

var logger = log.Logger("concrnt")

const (
	// startTimeout 启动 Fx 应用的超时
	startTimeout = 30 * time.Second

	// stopTimeout 停止 Fx 应用的超时
	stopTimeout = 10 * time.Second
)

// Client Concrnt 客户端
//
// 聚合身份、缓存、请求引擎与解析器。创建后即可使用，
// 用完调用 Close 释放后台任务与存储。
//
// 示例：
//
//	client, err := concrnt.New(ctx,
//	    concrnt.WithHost("concrnt.example"),
//	    concrnt.WithIdentity(id),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	tl, err := concrnt.GetResource[Timeline](ctx, client, "cc://"+client.Address()+"/world.concrnt.t-home", "")
type Client struct {
	cfg   *config.Config
	app   *fx.App
	clock clock.Clock

	// 由 Fx 注入
	auth      interfaces.AuthProvider
	engine    *fetch.Engine
	resolver  *resolver.Resolver
	store     *identity.Store
	bandwidth *metrics.BandwidthCounter

	mu     sync.Mutex
	closed bool
}

// New 创建并启动客户端
func New(ctx context.Context, opts ...Option) (*Client, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	cfg := o.toConfig()

	c := &Client{cfg: cfg, clock: o.clock}
	if c.clock == nil {
		c.clock = clock.New()
	}
	app, err := buildFxApp(cfg, o, c)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	c.app = app

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		logger.Error("客户端启动失败", "error", err)
		return nil, fmt.Errorf("start: %w", err)
	}

	logger.Info("客户端已启动", "host", c.Host(), "address", log.TruncateID(c.Address(), 12))
	return c, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              基本信息
// ════════════════════════════════════════════════════════════════════════════

// Address 返回当前实体地址，访客返回空字符串
func (c *Client) Address() string {
	ccid, err := c.auth.CCID()
	if err != nil {
		return ""
	}
	return ccid
}

// Host 返回默认服务器
func (c *Client) Host() string {
	return c.engine.DefaultHost()
}

// Config 返回生效的配置
func (c *Client) Config() *config.Config {
	return c.cfg
}

// Auth 返回认证提供者
func (c *Client) Auth() interfaces.AuthProvider {
	return c.auth
}

// Engine 返回请求引擎
func (c *Client) Engine() *fetch.Engine {
	return c.engine
}

// Resolver 返回资源解析器
func (c *Client) Resolver() *resolver.Resolver {
	return c.resolver
}

// IdentityStore 返回身份存储
func (c *Client) IdentityStore() *identity.Store {
	return c.store
}

// BandwidthStats 返回各服务器的流量统计
func (c *Client) BandwidthStats() map[string]metrics.Stats {
	return c.bandwidth.ByHost()
}

// ════════════════════════════════════════════════════════════════════════════
//                              读取
// ════════════════════════════════════════════════════════════════════════════

// GetServer 获取服务描述，remote 为空时使用默认服务器
func (c *Client) GetServer(ctx context.Context, remote string) (*types.Server, error) {
	return c.resolver.GetServer(ctx, remote)
}

// GetEntity 获取实体记录
func (c *Client) GetEntity(ctx context.Context, ccid, hint string) (*types.Entity, error) {
	return c.resolver.GetEntity(ctx, ccid, hint)
}

// GetResourceRaw 读取资源原文，返回 (nil, nil) 表示资源不存在
func (c *Client) GetResourceRaw(ctx context.Context, uri, domain string, opts ...fetch.Option) (json.RawMessage, error) {
	return c.resolver.GetResourceRaw(ctx, uri, domain, opts...)
}

// GetResource 读取并解码资源，返回 (nil, nil) 表示资源不存在
func GetResource[T any](ctx context.Context, c *Client, uri, domain string, opts ...fetch.Option) (*T, error) {
	return resolver.GetResource[T](ctx, c.resolver, uri, domain, opts...)
}

// ServerOnline 检查服务器是否在线
func (c *Client) ServerOnline(ctx context.Context, host string) bool {
	return c.resolver.ServerOnline(ctx, host)
}

// ════════════════════════════════════════════════════════════════════════════
//                              写入
// ════════════════════════════════════════════════════════════════════════════

// Commit 签名并提交文档，domain 为空时发往默认服务器
func (c *Client) Commit(ctx context.Context, document any, domain string) (json.RawMessage, error) {
	return c.resolver.Commit(ctx, document, domain)
}

// Affiliate 向 domain 声明归属
func (c *Client) Affiliate(ctx context.Context, domain string) (json.RawMessage, error) {
	return c.resolver.Affiliate(ctx, domain)
}

// EnsureHomeTimeline 确保个人主时间线存在
//
// 主时间线总在默认服务器上读写。不存在时提交一个空时间线文档，
// created 为 true 表示本次创建。
func (c *Client) EnsureHomeTimeline(ctx context.Context) (created bool, err error) {
	ccid, err := c.auth.CCID()
	if err != nil {
		return false, err
	}

	uri := "cc://" + ccid + "/" + types.HomeTimelineKey
	raw, err := c.resolver.GetResourceRaw(ctx, uri, c.Host())
	if err != nil {
		return false, err
	}
	if raw != nil {
		return false, nil
	}

	doc := types.Document[types.EmptyValue]{
		Key:         types.HomeTimelineKey,
		ContentType: types.ContentTypeChunkline,
		Schema:      types.SchemaEmptyTimeline,
		Value:       types.EmptyValue{},
		Author:      ccid,
		CreatedAt:   types.NewTime(c.clock.Now()),
	}
	if _, err := c.resolver.Commit(ctx, doc, ""); err != nil {
		return false, fmt.Errorf("create home timeline: %w", err)
	}
	if err := c.resolver.InvalidateResource(ctx, uri); err != nil {
		logger.Warn("清除时间线缓存失败", "uri", uri, "error", err)
	}
	logger.Info("已创建主时间线", "uri", uri)
	return true, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Close 关闭客户端
//
// 停止后台刷新与清理任务并关闭存储。可重复调用。
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	var err error
	if c.engine != nil {
		err = multierr.Append(err, c.engine.Close())
	}
	err = multierr.Append(err, c.app.Stop(ctx))
	if err != nil {
		logger.Warn("关闭客户端时出错", "error", err)
		return err
	}
	logger.Info("客户端已关闭")
	return nil
}
