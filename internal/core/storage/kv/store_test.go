package kv

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dep2p/go-concrnt/internal/core/storage/engine"
	"github.com/dep2p/go-concrnt/internal/core/storage/engine/badger"
)

// testEngine 创建测试用引擎
// 使用 t.TempDir() 创建临时目录
func testEngine(t *testing.T) engine.Engine {
	t.Helper()

	eng, err := badger.New(engine.DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(func() {
		if err := eng.Close(); err != nil {
			t.Errorf("failed to close engine: %v", err)
		}
	})
	return eng
}

// ============= 基础操作测试 =============

func TestStore_PutGet(t *testing.T) {
	eng := testEngine(t)
	s := New(eng, []byte("test/"))

	if err := s.Put([]byte("key1"), []byte("value1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get([]byte("key1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("value1")) {
		t.Errorf("Get returned %q", got)
	}

	// 底层引擎中带前缀
	raw, err := eng.Get([]byte("test/key1"))
	if err != nil || !bytes.Equal(raw, []byte("value1")) {
		t.Errorf("engine Get = %q, %v", raw, err)
	}

	if err := s.Delete([]byte("key1")); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Has([]byte("key1")); ok {
		t.Error("key1 should be deleted")
	}
}

func TestStore_Isolation(t *testing.T) {
	eng := testEngine(t)
	a := New(eng, []byte("a/"))
	b := New(eng, []byte("b/"))

	_ = a.Put([]byte("k"), []byte("from-a"))
	_ = b.Put([]byte("k"), []byte("from-b"))

	got, _ := a.Get([]byte("k"))
	if string(got) != "from-a" {
		t.Errorf("a.Get = %q", got)
	}

	if err := a.DeletePrefix(nil); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Get([]byte("k")); !engine.IsNotFound(err) {
		t.Errorf("a.Get after DeletePrefix error = %v", err)
	}
	got, _ = b.Get([]byte("k"))
	if string(got) != "from-b" {
		t.Errorf("b.Get = %q", got)
	}
}

// ============= 结构化值测试 =============

type record struct {
	Name  string `cbor:"1,keyasint"`
	Count int    `cbor:"2,keyasint"`
}

func TestStore_CBOR(t *testing.T) {
	s := New(testEngine(t), []byte("r/"))

	in := record{Name: "concrnt", Count: 3}
	if err := s.PutCBOR([]byte("rec"), in); err != nil {
		t.Fatalf("PutCBOR failed: %v", err)
	}

	var out record
	if err := s.GetCBOR([]byte("rec"), &out); err != nil {
		t.Fatalf("GetCBOR failed: %v", err)
	}
	if out != in {
		t.Errorf("GetCBOR = %+v, want %+v", out, in)
	}

	_ = s.Put([]byte("bad"), []byte{0xff, 0xff})
	if err := s.GetCBOR([]byte("bad"), &out); !errors.Is(err, engine.ErrCorrupted) {
		t.Errorf("GetCBOR(bad) error = %v", err)
	}
}

// ============= 前缀迭代测试 =============

func TestStore_PrefixScan(t *testing.T) {
	s := New(testEngine(t), []byte("p/"))

	for i := 0; i < 3; i++ {
		_ = s.Put([]byte(fmt.Sprintf("x/%d", i)), []byte("v"))
	}
	_ = s.Put([]byte("y/0"), []byte("v"))

	keys, err := s.Keys([]byte("x/"))
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 3 || string(keys[0]) != "x/0" {
		t.Errorf("Keys = %q", keys)
	}

	n, err := s.Count(nil)
	if err != nil || n != 4 {
		t.Errorf("Count = %d, %v", n, err)
	}

	if err := s.DeletePrefix([]byte("x/")); err != nil {
		t.Fatal(err)
	}
	n, _ = s.Count(nil)
	if n != 1 {
		t.Errorf("Count after DeletePrefix = %d, want 1", n)
	}
}

// TestStore_CBORDeterministic 相同的值写出相同字节
func TestStore_CBORDeterministic(t *testing.T) {
	s := New(testEngine(t), []byte("d/"))

	m := map[string]int{"z": 1, "a": 2, "m": 3}
	if err := s.PutCBOR([]byte("1"), m); err != nil {
		t.Fatal(err)
	}
	if err := s.PutCBOR([]byte("2"), map[string]int{"m": 3, "z": 1, "a": 2}); err != nil {
		t.Fatal(err)
	}
	a, _ := s.Get([]byte("1"))
	b, _ := s.Get([]byte("2"))
	if string(a) != string(b) {
		t.Errorf("encodings differ: %x vs %x", a, b)
	}

	var out any
	if err := s.GetCBOR([]byte("1"), &out); err != nil {
		t.Fatal(err)
	}
	if _, ok := out.(map[string]any); !ok {
		t.Errorf("decoded type = %T, want map[string]any", out)
	}
}
