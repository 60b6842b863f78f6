package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLazyLogger_ComponentLevel 测试组件级别过滤
func TestLazyLogger_ComponentLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		levels.Lock()
		levels.def = slog.LevelInfo
		levels.components = map[string]slog.Level{}
		levels.Unlock()
		slog.SetDefault(prev)
	})

	var buf bytes.Buffer
	SetOutputWithLevel(&buf, slog.LevelWarn)
	levels.Lock()
	levels.components["test/verbose"] = slog.LevelDebug
	levels.Unlock()
	install(&buf, "text")

	quiet := Logger("test/quiet")
	verbose := Logger("test/verbose")

	quiet.Info("quiet-info")
	verbose.Debug("verbose-debug")
	quiet.Warn("quiet-warn")

	out := buf.String()
	assert.NotContains(t, out, "quiet-info")
	assert.Contains(t, out, "verbose-debug")
	assert.Contains(t, out, "quiet-warn")
	assert.Contains(t, out, "component=test/verbose")
}

// TestParseLevel 测试级别解析
func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, l)

	l, ok = ParseLevel(" WARN ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, l)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}

// TestConfigureFromEnv 测试环境变量解析
func TestConfigureFromEnv(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		levels.Lock()
		levels.def = slog.LevelInfo
		levels.components = map[string]slog.Level{}
		levels.Unlock()
		slog.SetDefault(prev)
	})

	t.Setenv(EnvLogLevel, "core/fetch=debug, error")
	ConfigureFromEnv()

	assert.True(t, Logger("core/fetch").Enabled(slog.LevelDebug))
	assert.False(t, Logger("core/cache").Enabled(slog.LevelWarn))
	assert.True(t, Logger("core/cache").Enabled(slog.LevelError))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "con1ab", TruncateID("con1abcdef", 6))
	assert.Equal(t, "short", TruncateID("short", 10))
	assert.True(t, strings.HasPrefix(TruncateID("con1xyz", 4), "con1"))
}
