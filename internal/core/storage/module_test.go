package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/storage/engine"
)

func TestEngineConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Storage.DataDir = "/var/lib/concrnt"
	cfg.Storage.SyncWrites = true
	cfg.Storage.GCInterval = config.Duration(time.Hour)

	ec := EngineConfig(cfg, nil)
	assert.Equal(t, filepath.Join("/var/lib/concrnt", "concrnt.db"), ec.Path)
	assert.True(t, ec.SyncWrites)
	assert.Equal(t, time.Hour, ec.GCInterval)
	require.NoError(t, ec.Validate())

	def := EngineConfig(nil, nil)
	assert.Equal(t, config.DefaultStorageConfig().DBPath(), def.Path)
}

func TestModule_Lifecycle(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Storage.DataDir = t.TempDir()

	var eng engine.Engine
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() clock.Clock { return clock.NewMock() }),
		Module(),
		fx.Populate(&eng),
	)
	app.RequireStart()

	store := NewKVStore(eng, []byte("t/"))
	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	got, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	app.RequireStop()

	_, err = eng.Get([]byte("t/k"))
	assert.ErrorIs(t, err, engine.ErrClosed)
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(engine.DefaultConfig(""))
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}
