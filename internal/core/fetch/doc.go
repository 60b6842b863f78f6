// Package fetch 实现带熔断与缓存的网络请求引擎
//
// 引擎对每个请求同时施加三种策略：
//
//   - 按服务器熔断：连续失败的服务器在退避窗口内直接返回 ServerOffline，
//     不发起网络请求，成功一次即清除记录
//   - 响应缓存：新鲜条目直接返回；过期条目先返回，再在后台刷新一次
//     （stale-while-revalidate）；404 记为负缓存
//   - 请求合并：同一缓存键同时只有一个网络请求，所有等待者得到同一结果
//
// # 使用示例
//
//	eng, err := fetch.New(cfg, kvs, provider)
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	raw, err := eng.FetchWithCache(ctx, "example.com", "/.well-known/concrnt", "domain:example.com",
//	    fetch.WithoutAuth())
//	if err != nil {
//	    return err
//	}
//	server, err := fetch.Decode[types.Server](raw)
//
// # 错误
//
// 返回的错误都能用 errors.Is 匹配 types 包中的哨兵错误：
// ErrServerOffline、ErrPermissionDenied、ErrNotFound、ErrTimeout、
// ErrTransport、ErrCacheMiss。带缓存的请求遇到 404 返回 (nil, nil)。
package fetch
