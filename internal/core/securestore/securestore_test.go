package securestore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

func exerciseStore(t *testing.T, s interfaces.SecureStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "identity")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "identity", `{"CCID":"con1"}`))
	require.NoError(t, s.Set(ctx, "host", "concrnt.example"))

	v, ok, err := s.Get(ctx, "identity")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"CCID":"con1"}`, v)

	require.NoError(t, s.Delete(ctx, "identity"))
	require.NoError(t, s.Delete(ctx, "identity"), "重复删除不报错")

	_, ok, err = s.Get(ctx, "identity")
	require.NoError(t, err)
	assert.False(t, ok)

	v, _, _ = s.Get(ctx, "host")
	assert.Equal(t, "concrnt.example", v)
}

// TestMemory 测试内存存储
func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

// TestFile 测试加密文件存储
func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identity.age")
	s, err := NewFile(path, "correct horse", WithWorkFactor(10))
	require.NoError(t, err)

	exerciseStore(t, s)

	// 文件内容已加密
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte("concrnt.example")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// 重新打开后数据仍在
	reopened, err := NewFile(path, "correct horse")
	require.NoError(t, err)
	v, ok, err := reopened.Get(context.Background(), "host")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "concrnt.example", v)
}

// TestFile_WrongPassphrase 测试错误口令
func TestFile_WrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.age")
	s, err := NewFile(path, "right", WithWorkFactor(10))
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "k", "v"))

	wrong, err := NewFile(path, "wrong")
	require.NoError(t, err)
	_, _, err = wrong.Get(context.Background(), "k")
	assert.Error(t, err)

	_, err = NewFile(path, "")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
}
