package pubsub

import (
	"errors"
	"time"

	"github.com/dep2p/go-comms/config"
)

// Config 发布订阅配置
type Config struct {
	// Capacity 广播环容量
	Capacity int

	// IngestBuffer 分类前的入站缓冲
	IngestBuffer int

	// UnrecognizedLogInterval 同一来源节点未识别消息的日志间隔
	UnrecognizedLogInterval time.Duration

	// UnrecognizedLogBurst 日志突发上限
	UnrecognizedLogBurst int

	// PeerCacheSize 跟踪的来源节点数上限
	PeerCacheSize int

	// MetricsEnabled 是否向外部 Registerer 注册指标
	MetricsEnabled bool

	// MetricsNamespace 指标命名空间
	MetricsNamespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Capacity:                1000,
		IngestBuffer:            1000,
		UnrecognizedLogInterval: time.Minute,
		UnrecognizedLogBurst:    3,
		PeerCacheSize:           1024,
		MetricsEnabled:          true,
		MetricsNamespace:        "comms",
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return errors.New("pubsub: capacity must be positive")
	}
	if c.IngestBuffer <= 0 {
		return errors.New("pubsub: ingest buffer must be positive")
	}
	if c.UnrecognizedLogInterval <= 0 || c.UnrecognizedLogBurst <= 0 {
		return errors.New("pubsub: invalid unrecognized log rate")
	}
	if c.PeerCacheSize <= 0 {
		return errors.New("pubsub: peer cache size must be positive")
	}
	return nil
}

// WithCapacity 设置容量（入站缓冲同步调整）
func (c Config) WithCapacity(capacity int) Config {
	c.Capacity = capacity
	c.IngestBuffer = capacity
	return c
}

// ConfigFromUnified 从统一配置创建发布订阅配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	ps := cfg.PubSub
	return Config{
		Capacity:                ps.Capacity,
		IngestBuffer:            ps.EffectiveIngestBuffer(),
		UnrecognizedLogInterval: ps.UnrecognizedLogInterval.Duration(),
		UnrecognizedLogBurst:    ps.UnrecognizedLogBurst,
		PeerCacheSize:           ps.PeerCacheSize,
		MetricsEnabled:          cfg.Metrics.Enabled,
		MetricsNamespace:        cfg.Metrics.Namespace,
	}
}
