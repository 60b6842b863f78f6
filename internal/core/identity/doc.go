// Package identity 实现身份管理
//
// 身份由 12 个 BIP39 助记词确定，沿 m/44'/118'/0'/0/0 派生 secp256k1 密钥：
//
//	mnemonic ──BIP39──▶ seed ──BIP32──▶ privateKey ──▶ compressed pubKey ──▶ CCID
//
// 助记词可以用英文或日文书写，两种写法加载出的身份完全一致。
//
// # 子密钥
//
// 子密钥是实体委托给某台设备的独立密钥，以一行文本分发：
//
//	concrnt-subkey <privatekey-hex> <ccid>@<domain> <name>
//
// # 持久化
//
// Store 通过 interfaces.SecureStore 保存身份 JSON（键 "identity"）、
// 归属服务器（键 "host"）与子密钥（键 "subkey"）。
package identity
