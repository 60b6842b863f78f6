// Package types 定义 Concrnt 客户端的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - address.go  - CCID / CSID / CKID 地址类型与判定
//   - document.go - Document[T]、SignedDocument、Proof、Affiliation
//   - server.go   - Server 服务描述、Endpoint、Entity、APIResponse
//   - time.go     - 与 JavaScript Date 兼容的时间序列化
//   - json.go     - 规范 JSON 序列化
//   - errors.go   - 公共错误定义与 FetchError
//
// # 地址
//
// 所有地址均为 bech32 编码的 20 字节哈希，长度固定 42 字符：
//
//	con1...  实体地址（CCID）
//	ccs1...  服务器地址（CSID）
//	cck1...  子密钥地址（CKID）
package types
