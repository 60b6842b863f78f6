package concrnt

import (
	"context"
	"errors"
	"fmt"

	"github.com/dep2p/go-concrnt/internal/core/identity"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// ErrNoHost 未指定服务器且存储中也没有
var ErrNoHost = errors.New("no host configured")

// Bootstrap 从安全存储恢复会话
//
// 流程：
//  1. 读取保存的服务器，host 非空时覆盖并保存
//  2. 没有子密钥也没有身份时生成新身份并保存
//  3. 以存储中的凭据创建客户端
//
// opts 追加在内部选项之后，可覆盖它们。
func Bootstrap(ctx context.Context, store interfaces.SecureStore, host string, opts ...Option) (*Client, error) {
	ids := identity.NewStore(store)

	saved, ok, err := ids.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("load host: %w", err)
	}
	switch {
	case host != "" && host != saved:
		if err := ids.SetHost(ctx, host); err != nil {
			return nil, fmt.Errorf("save host: %w", err)
		}
	case host == "" && ok:
		host = saved
	}
	if host == "" {
		return nil, ErrNoHost
	}

	if _, hasSubKey, err := ids.SubKey(ctx); err != nil {
		return nil, fmt.Errorf("load subkey: %w", err)
	} else if !hasSubKey {
		id, created, err := ids.LoadOrCreate(ctx)
		if err != nil {
			return nil, fmt.Errorf("load identity: %w", err)
		}
		if created {
			logger.Info("首次启动，已生成身份", "ccid", id.CCID, "host", host)
		}
	}

	base := []Option{WithHost(host), WithSecureStore(store)}
	return New(ctx, append(base, opts...)...)
}

// Logout 删除存储中的身份与子密钥，保留服务器设置
func Logout(ctx context.Context, store interfaces.SecureStore) error {
	if err := identity.NewStore(store).Delete(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	logger.Info("已登出")
	return nil
}
