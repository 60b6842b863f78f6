// Package concrnt 提供 Concrnt 去中心化文档网络的客户端运行时
//
// Concrnt 中每个实体（CCID）归属于某个服务器（域），资源以
// cc://<owner>/<key> 形式寻址，owner 可以是实体地址、服务器地址（CSID）
// 或域名。客户端负责把 URI 解析到具体服务器、带缓存地读取资源，
// 以及签名并提交文档。
//
// # 快速开始
//
//	import "github.com/dep2p/go-concrnt"
//
//	// 1. 从安全存储恢复（首次运行时生成身份）
//	client, err := concrnt.Bootstrap(ctx, store, "concrnt.example")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// 2. 读取资源
//	entity, err := client.GetEntity(ctx, ccid, "")
//
//	// 3. 提交签名文档
//	ack, err := client.Commit(ctx, doc, "")
//
// # 组件
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│  Client          concrnt.New() / concrnt.Bootstrap()            │
//	├─────────────────────────────────────────────────────────────────┤
//	│  Resolver        URI → 服务器 → 端点模板；Commit / Affiliate    │
//	├─────────────────────────────────────────────────────────────────┤
//	│  Fetch Engine    熔断 · 缓存与后台刷新 · 请求合并 · 限速        │
//	├──────────────────────────────┬──────────────────────────────────┤
//	│  Cache (memory/lru/badger)   │  Auth (master/subkey/guest)      │
//	└──────────────────────────────┴──────────────────────────────────┘
//
// # 错误
//
// 网络错误统一为 *FetchError，可用 errors.Is 匹配 ErrServerOffline、
// ErrNotFound、ErrPermissionDenied、ErrTimeout 或 ErrTransport。
// 缓存读取遇到 404 时返回 (nil, nil) 表示资源不存在。
//
// # 日志
//
// 日志通过 CONCRNT_LOG_LEVEL 与 CONCRNT_LOG_FORMAT 环境变量配置，
// 见 pkg/lib/log。
package concrnt
