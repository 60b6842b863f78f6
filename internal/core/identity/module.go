package identity

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-concrnt/internal/core/securestore"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// 安全存储（可选，缺省使用进程内存储）
	Secure interfaces.SecureStore `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Store *Store
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	secure := input.Secure
	if secure == nil {
		secure = securestore.NewMemory()
	}
	return ModuleOutput{Store: NewStore(secure)}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideServices),
	)
}
