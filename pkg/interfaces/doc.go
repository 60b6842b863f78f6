// Package interfaces 定义 Concrnt 客户端的公共接口
//
// 每个接口文件对应一个可替换的外部能力：
//   - kvs.go          - 响应缓存存储（memory / lru / badger）
//   - auth.go         - 认证提供者（主密钥 / 子密钥 / 访客）
//   - securestore.go  - 身份等敏感数据的安全存储
//
// 所有接口实现必须保证并发安全。
package interfaces
