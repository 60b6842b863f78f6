// Package crypto 提供 Concrnt 密码学工具
//
// 本包实现网络协议规定的签名、地址和令牌格式，全部基于 secp256k1。
//
// # 签名
//
// 对 payload 计算 keccak256 摘要，使用 RFC6979 确定性 nonce 与
// low-S 规范形式签名，输出 130 个十六进制字符：
//
//	r (64) || s (64) || v (2, "00" 或 "01")
//
// 同一私钥与同一 payload 总是得到相同签名，且可由签名恢复出公钥。
//
// # 地址
//
//	address = bech32(hrp, ripemd160(sha256(compressedPubKey)))
//
// hrp 为 "con"（实体）、"ccs"（服务器）或 "cck"（子密钥）。
//
// # 令牌
//
// JWT 头为 {"alg":"CONCRNT","typ":"JWT"}，签名为 r||s||v 原始字节的
// base64url 编码。iat / exp 以十进制字符串形式保存 Unix 秒。
//
// 快速开始：
//
//	sig, err := crypto.Sign(privHex, payload)
//	err = crypto.VerifySignature(payload, sig, ccid)
//
//	token, err := crypto.IssueJWT(key, crypto.Claims{Issuer: ccid, Audience: host}, crypto.JWTOptions{})
package crypto
