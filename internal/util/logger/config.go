// Package logger 提供统一的日志接口
//
// 支持通过环境变量配置日志级别：
//   - COMMS_LOG_LEVEL: 日志级别，支持按子系统配置
//     格式: 子系统=级别,子系统=级别,默认级别
//     示例: core/connectivity=debug,protocol/pubsub=warn,info
//   - COMMS_LOG_FORMAT: 日志格式 (text 或 json)
//   - COMMS_LOG_ADD_SOURCE: 是否输出源码位置
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 环境变量名
const (
	EnvLogLevel     = "COMMS_LOG_LEVEL"
	EnvLogFormat    = "COMMS_LOG_FORMAT"
	EnvLogAddSource = "COMMS_LOG_ADD_SOURCE"
)

// LogFormat 日志输出格式
type LogFormat int

const (
	// FormatText 文本格式（默认）
	FormatText LogFormat = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// SubsystemLevels 各子系统的日志级别
	SubsystemLevels map[string]slog.Level

	// Format 输出格式
	Format LogFormat

	// AddSource 是否添加源码位置
	AddSource bool
}

// LevelForSubsystem 获取指定子系统的日志级别
func (c *Config) LevelForSubsystem(subsystem string) slog.Level {
	if level, ok := c.SubsystemLevels[subsystem]; ok {
		return level
	}
	return c.DefaultLevel
}

var (
	configMu    sync.RWMutex
	configCache *Config
)

// CurrentConfig 返回当前生效的配置
//
// 首次调用时从环境变量解析。
func CurrentConfig() *Config {
	configMu.RLock()
	cfg := configCache
	configMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	configMu.Lock()
	defer configMu.Unlock()
	if configCache == nil {
		configCache = parseEnv()
	}
	return configCache
}

// Configure 用级别描述和格式覆盖当前配置
//
// levelSpec 与 COMMS_LOG_LEVEL 格式相同；空字符串表示保持不变。
// 已创建的子系统 Logger 会同步调整级别。
func Configure(levelSpec, format string) {
	base := CurrentConfig()

	cfg := &Config{
		DefaultLevel:    base.DefaultLevel,
		SubsystemLevels: make(map[string]slog.Level, len(base.SubsystemLevels)),
		Format:          base.Format,
		AddSource:       base.AddSource,
	}
	for k, v := range base.SubsystemLevels {
		cfg.SubsystemLevels[k] = v
	}
	if levelSpec != "" {
		parseLevelSpec(cfg, levelSpec)
	}
	if format != "" {
		cfg.Format = parseFormat(format)
	}

	configMu.Lock()
	configCache = cfg
	configMu.Unlock()

	handlers.Range(func(key, value any) bool {
		value.(*subsystemHandler).SetLevel(cfg.LevelForSubsystem(key.(string)))
		return true
	})
}

// parseEnv 解析环境变量配置
func parseEnv() *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}

	if levelStr := os.Getenv(EnvLogLevel); levelStr != "" {
		parseLevelSpec(cfg, levelStr)
	}
	if formatStr := os.Getenv(EnvLogFormat); formatStr != "" {
		cfg.Format = parseFormat(formatStr)
	}
	if addSourceStr := os.Getenv(EnvLogAddSource); addSourceStr != "" {
		cfg.AddSource = addSourceStr != "false" && addSourceStr != "0"
	}

	return cfg
}

// parseLevelSpec 解析日志级别配置字符串
// 格式: subsystem=level,subsystem=level,defaultLevel
func parseLevelSpec(cfg *Config, spec string) {
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		subsystem, levelName, found := strings.Cut(part, "=")
		if !found {
			if level, ok := ParseLevel(part); ok {
				cfg.DefaultLevel = level
			}
			continue
		}
		if level, ok := ParseLevel(strings.TrimSpace(levelName)); ok {
			cfg.SubsystemLevels[strings.TrimSpace(subsystem)] = level
		}
	}
}

func parseFormat(s string) LogFormat {
	if strings.EqualFold(s, "json") {
		return FormatJSON
	}
	return FormatText
}

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// resetConfig 重置配置缓存（仅用于测试）
func resetConfig() {
	configMu.Lock()
	configCache = nil
	configMu.Unlock()
}
