// Package auth 实现三种 interfaces.AuthProvider
//
//   - MasterKeyProvider: 持有实体主私钥，令牌 iss 为 CCID
//   - SubKeyProvider:    持有委托子密钥，令牌 iss 为 CKID，归属服务器为子密钥所属域
//   - GuestProvider:     匿名访问，请求头为空，签名与身份相关方法返回 ErrNotImplemented
//
// # 请求头
//
//	Authorization: Bearer <aud 为目标服务器的令牌>
//	passport:      <归属服务器签发的 passport>
//
// 令牌按目标服务器缓存，剩余有效期不足 RefreshMargin 时重新签发。
// passport 在每个 provider 实例内只成功获取一次，并发调用共享同一请求。
package auth
