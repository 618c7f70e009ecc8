package config

import (
	"errors"
	"strings"
)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否注册 Prometheus 指标
	Enabled bool `json:"enabled"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "comms",
	}
}

// LogConfig 日志配置
//
// 空值表示沿用环境变量（COMMS_LOG_LEVEL / COMMS_LOG_FORMAT）。
type LogConfig struct {
	// Level 级别描述，格式: 子系统=级别,...,默认级别
	Level string `json:"level,omitempty"`

	// Format text 或 json
	Format string `json:"format,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
		return nil
	default:
		return errors.New("format must be text or json")
	}
}
