package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/fetch"
)

func TestParseCacheMode(t *testing.T) {
	mode, err := parseCacheMode("force-cache")
	require.NoError(t, err)
	assert.Equal(t, fetch.CacheForce, mode)

	_, err = parseCacheMode("sometimes")
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	for _, c := range commands {
		got, ok := lookup(c.name)
		require.True(t, ok, c.name)
		assert.Equal(t, c.usage, got.usage)
	}
	_, ok := lookup("publish")
	assert.False(t, ok)
}

func TestRun_Unknown(t *testing.T) {
	assert.Error(t, run([]string{"publish"}))
	assert.NoError(t, run([]string{"--version"}))
	assert.NoError(t, run(nil))
}

func TestLoadConfig_Overrides(t *testing.T) {
	g := globalFlags{host: "concrnt.example", dataDir: t.TempDir(), storePath: "id.age"}
	cfg, err := g.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "concrnt.example", cfg.Host)
	assert.Equal(t, config.CacheBackendBadger, cfg.Cache.Backend)
	assert.Equal(t, "id.age", cfg.Identity.StorePath)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concrnt.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{
	// 余量留空
	"auth": {"refresh_margin": "0s"},
}`), 0o600))

	g := globalFlags{configFile: path, host: "concrnt.example"}
	cfg, err := g.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAuthConfig().RefreshMargin, cfg.Auth.RefreshMargin)
	assert.Equal(t, "concrnt.example", cfg.Host)

	g = globalFlags{configFile: filepath.Join(t.TempDir(), "missing.json")}
	_, err = g.loadConfig()
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	cfg := config.NewConfig()
	_, err := openStore(cfg)
	assert.Error(t, err)

	cfg.Identity.StorePath = t.TempDir() + "/id.age"
	cfg.Identity.PassphraseEnv = "CONCRNT_TEST_PASSPHRASE"
	t.Setenv("CONCRNT_TEST_PASSPHRASE", "")
	_, err = openStore(cfg)
	assert.Error(t, err)

	t.Setenv("CONCRNT_TEST_PASSPHRASE", "secret")
	store, err := openStore(cfg)
	require.NoError(t, err)
	assert.NotNil(t, store)
}
