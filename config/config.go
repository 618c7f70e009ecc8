// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 加载和保存配置
//   - 支持预设配置（wallet/basenode/test）
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Connectivity.OnlineThreshold = 5
//
//	// 应用预设到现有配置
//	config.ApplyPreset(cfg, "basenode")
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Config 是 go-comms 的完整配置结构
//
// 配置按照功能模块组织：
//   - Connectivity: 连接池、拨号重试、受管节点重拨
//   - PubSub: 入站信封分类与主题扇出
//   - Metrics: Prometheus 指标
//   - Log: 日志级别与格式
type Config struct {
	// Connectivity 连通性配置
	Connectivity ConnectivityConfig `json:"connectivity"`

	// PubSub 发布订阅配置
	PubSub PubSubConfig `json:"pubsub"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Connectivity: DefaultConnectivityConfig(),
		PubSub:       DefaultPubSubConfig(),
		Metrics:      DefaultMetricsConfig(),
		Log:          DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Connectivity.Validate(); err != nil {
		return fmt.Errorf("connectivity: %w", err)
	}
	if err := c.PubSub.Validate(); err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "connectivity": {"online_threshold": 5, "dial_backoff_base": "250ms"},
//	  "pubsub": {"capacity": 2000},
//	  "log": {"level": "core/connectivity=debug,info"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Connectivity.ManagedPeers = append([]string(nil), c.Connectivity.ManagedPeers...)
	out.PubSub.RecognizedTypes = append([]int32(nil), c.PubSub.RecognizedTypes...)
	return &out
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "wallet": 钱包，少量基础节点即可在线
//   - "basenode": 基础层节点，更高的连通性要求与更大的缓冲
//   - "test": 测试，极短的退避与超时
func ApplyPreset(cfg *Config, preset string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch preset {
	case "wallet":
		cfg.Connectivity.DegradedThreshold = 1
		cfg.Connectivity.OnlineThreshold = 1
		cfg.Connectivity.MaxConcurrentDials = 4
		cfg.PubSub.Capacity = 256
	case "basenode":
		cfg.Connectivity.DegradedThreshold = 2
		cfg.Connectivity.OnlineThreshold = 8
		cfg.Connectivity.MaxConcurrentDials = 64
		cfg.PubSub.Capacity = 4096
	case "test":
		cfg.Connectivity.DialBackoffBase = Duration(time.Millisecond)
		cfg.Connectivity.DialBackoffMax = Duration(5 * time.Millisecond)
		cfg.Connectivity.DialTimeout = Duration(time.Second)
		cfg.Connectivity.InitialRedialDelay = Duration(5 * time.Millisecond)
		cfg.Connectivity.MaxRedialDelay = Duration(50 * time.Millisecond)
	case "":
		return nil
	default:
		return fmt.Errorf("unknown preset: %s", preset)
	}
	return nil
}
