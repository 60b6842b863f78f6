package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// 安全存储键
const (
	StoreKeyIdentity = "identity"
	StoreKeyHost     = "host"
	StoreKeySubKey   = "subkey"
)

// ============================================================================
//                              身份持久化
// ============================================================================

// Store 在 SecureStore 上保存身份数据
type Store struct {
	secure interfaces.SecureStore
}

// NewStore 创建身份存储
func NewStore(secure interfaces.SecureStore) *Store {
	return &Store{secure: secure}
}

// Load 读取身份，ok 为 false 表示尚未保存
func (s *Store) Load(ctx context.Context) (*Identity, bool, error) {
	raw, ok, err := s.secure.Get(ctx, StoreKeyIdentity)
	if err != nil || !ok {
		return nil, false, err
	}

	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrIdentityMismatch, err)
	}
	if err := id.Validate(); err != nil {
		return nil, false, err
	}
	return &id, true, nil
}

// Save 保存身份
func (s *Store) Save(ctx context.Context, id *Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.secure.Set(ctx, StoreKeyIdentity, string(data))
}

// LoadOrCreate 读取身份，不存在时生成并保存
//
// created 为 true 表示本次新生成。
func (s *Store) LoadOrCreate(ctx context.Context) (id *Identity, created bool, err error) {
	id, ok, err := s.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return id, false, nil
	}

	id, err = GenerateIdentity()
	if err != nil {
		return nil, false, err
	}
	if err := s.Save(ctx, id); err != nil {
		return nil, false, err
	}
	logger.Info("已生成新身份", "ccid", id.CCID)
	return id, true, nil
}

// Delete 删除身份（登出）
func (s *Store) Delete(ctx context.Context) error {
	if err := s.secure.Delete(ctx, StoreKeyIdentity); err != nil {
		return err
	}
	return s.secure.Delete(ctx, StoreKeySubKey)
}

// Host 读取归属服务器
func (s *Store) Host(ctx context.Context) (string, bool, error) {
	return s.secure.Get(ctx, StoreKeyHost)
}

// SetHost 保存归属服务器
func (s *Store) SetHost(ctx context.Context, host string) error {
	return s.secure.Set(ctx, StoreKeyHost, host)
}

// SubKey 读取子密钥
func (s *Store) SubKey(ctx context.Context) (*SubKey, bool, error) {
	raw, ok, err := s.secure.Get(ctx, StoreKeySubKey)
	if err != nil || !ok {
		return nil, false, err
	}
	sk, err := LoadSubKey(raw)
	if err != nil {
		return nil, false, err
	}
	return sk, true, nil
}

// SaveSubKey 保存子密钥
func (s *Store) SaveSubKey(ctx context.Context, sk *SubKey) error {
	return s.secure.Set(ctx, StoreKeySubKey, sk.String())
}
