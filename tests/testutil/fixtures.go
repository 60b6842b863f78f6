// Package testutil 提供测试辅助工具
package testutil

// 测试数据固件
//
// 提供测试中常用的常量值，确保测试一致性。

const (
	// ResourceTemplate 模拟服务器的资源端点模板
	ResourceTemplate = "/api/v1/resource/{uri}"

	// EntityTemplate 模拟服务器的实体端点模板
	EntityTemplate = "/api/v1/entity/{ccid}"

	// APIEntity 实体端点名称
	APIEntity = "net.concrnt.core.entity"

	// PassportPath passport 路径
	PassportPath = "/api/v1/auth/passport"

	// TestPassport 模拟服务器签发的 passport
	TestPassport = "test-passport"

	// TestMnemonic 测试助记词
	TestMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
)
