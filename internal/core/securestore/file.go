package securestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"

	"github.com/dep2p/go-concrnt/pkg/interfaces"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
)

var logger = log.Logger("core/securestore")

// DefaultWorkFactor scrypt 工作因子（log2 N）
const DefaultWorkFactor = 18

// ErrEmptyPassphrase 口令为空
var ErrEmptyPassphrase = errors.New("securestore: empty passphrase")

// File age 加密的文件存储
//
// 整个键值表序列化为 JSON 后以 scrypt 口令加密写入单个文件，
// 每次写入都完整重写文件（临时文件 + rename）。
type File struct {
	path       string
	passphrase string
	workFactor int

	mu sync.Mutex
}

// FileOption 文件存储选项
type FileOption func(*File)

// WithWorkFactor 设置 scrypt 工作因子
func WithWorkFactor(logN int) FileOption {
	return func(f *File) {
		f.workFactor = logN
	}
}

// NewFile 创建文件存储，文件不存在时在首次写入时创建
func NewFile(path, passphrase string, opts ...FileOption) (*File, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	f := &File{path: path, passphrase: passphrase, workFactor: DefaultWorkFactor}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Get 读取值
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set 写入值
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values)
}

// Delete 删除值
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}

	id, err := age.NewScryptIdentity(f.passphrase)
	if err != nil {
		return nil, err
	}
	r, err := age.Decrypt(bytes.NewReader(data), id)
	if err != nil {
		return nil, fmt.Errorf("securestore: decrypt %s: %w", f.path, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("securestore: corrupted %s: %w", f.path, err)
	}
	return values, nil
}

func (f *File) save(values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return err
	}

	recipient, err := age.NewScryptRecipient(f.passphrase)
	if err != nil {
		return err
	}
	recipient.SetWorkFactor(f.workFactor)

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return err
	}
	if _, err := w.Write(plain); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	if err := atomicWriteFile(f.path, buf.Bytes(), 0o600); err != nil {
		return err
	}
	logger.Debug("安全存储已写入", "path", f.path, "keys", len(values))
	return nil
}

// atomicWriteFile 原子写入文件（临时文件 + rename）
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("同步临时文件失败: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("设置文件权限失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("重命名文件失败: %w", err)
	}
	success = true
	return nil
}

var _ interfaces.SecureStore = (*File)(nil)
