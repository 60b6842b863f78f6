// Package log 提供 Concrnt 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，提供简洁的日志 API。
//
// 日志级别通过环境变量配置：
//
//	CONCRNT_LOG_LEVEL=info                       # 全局级别
//	CONCRNT_LOG_LEVEL=core/fetch=debug,warn      # 组件级别 + 全局级别
//	CONCRNT_LOG_FORMAT=json                      # text（默认）或 json
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 环境变量
const (
	EnvLogLevel  = "CONCRNT_LOG_LEVEL"
	EnvLogFormat = "CONCRNT_LOG_FORMAT"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// levels 组件级别表
var levels = struct {
	sync.RWMutex
	def        slog.Level
	components map[string]slog.Level
}{def: slog.LevelInfo, components: map[string]slog.Level{}}

// SetDefault 设置默认 logger
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// Default 返回默认 logger
func Default() *slog.Logger {
	return slog.Default()
}

// New 创建新的文本 logger
func New(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewJSON 创建 JSON 格式的 logger
func NewJSON(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetOutputWithLevel 同时设置日志输出目标和全局级别
//
// 示例：
//
//	file, _ := os.OpenFile("concrnt.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
//	log.SetOutputWithLevel(file, slog.LevelDebug)
func SetOutputWithLevel(w io.Writer, level slog.Level) {
	levels.Lock()
	levels.def = level
	levels.Unlock()
	install(w, os.Getenv(EnvLogFormat))
}

// SetLevel 设置全局日志级别
func SetLevel(level slog.Level) {
	SetOutputWithLevel(os.Stderr, level)
}

// SetComponentLevel 设置单个组件的日志级别
func SetComponentLevel(component string, level slog.Level) {
	levels.Lock()
	levels.components[component] = level
	levels.Unlock()
	install(os.Stderr, os.Getenv(EnvLogFormat))
}

// ParseLevel 解析级别字符串，无法识别时返回 false
func ParseLevel(s string) (slog.Level, bool) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, false
	}
	return l, true
}

// ConfigureFromEnv 按环境变量重新配置级别
func ConfigureFromEnv() {
	spec := os.Getenv(EnvLogLevel)
	levels.Lock()
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if comp, lvl, ok := strings.Cut(part, "="); ok {
			if l, ok := ParseLevel(lvl); ok {
				levels.components[strings.TrimSpace(comp)] = l
			}
			continue
		}
		if l, ok := ParseLevel(part); ok {
			levels.def = l
		}
	}
	levels.Unlock()
	install(os.Stderr, os.Getenv(EnvLogFormat))
}

// install 以所有级别中的最低级别创建 handler，组件级过滤在 LazyLogger 中完成
func install(w io.Writer, format string) {
	levels.RLock()
	lowest := levels.def
	for _, l := range levels.components {
		if l < lowest {
			lowest = l
		}
	}
	levels.RUnlock()

	opts := &slog.HandlerOptions{Level: lowest}
	if strings.EqualFold(format, "json") {
		slog.SetDefault(NewJSON(w, opts))
		return
	}
	slog.SetDefault(New(w, opts))
}

func componentLevel(component string) slog.Level {
	levels.RLock()
	defer levels.RUnlock()
	if l, ok := levels.components[component]; ok {
		return l
	}
	return levels.def
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时都从 slog.Default() 获取最新的 handler，
// 支持在运行时动态切换日志输出目标。
//
//	var logger = log.Logger("core/fetch")
//	logger.Info("请求完成", "host", host)
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

// Enabled 检查组件是否输出该级别
func (l *LazyLogger) Enabled(level slog.Level) bool {
	return level >= componentLevel(l.component)
}

func (l *LazyLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	slog.Default().With("component", l.component).Log(ctx, level, msg, args...)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

// WarnContext 带 context 的 Warn 日志
func (l *LazyLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return slog.Default().With("component", l.component).With(args...)
}

// ============================================================================
//                              工具函数
// ============================================================================

// TruncateID 安全截取地址用于日志显示
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

func init() {
	ConfigureFromEnv()
}
