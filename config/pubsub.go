package config

import (
	"errors"
	"time"
)

// PubSubConfig 发布订阅配置
type PubSubConfig struct {
	// Capacity 广播环容量，也是订阅者可落后的最大条数
	Capacity int `json:"capacity"`

	// IngestBuffer 分类前的入站缓冲（0 表示与 Capacity 相同）
	IngestBuffer int `json:"ingest_buffer,omitempty"`

	// RecognizedTypes 可识别的消息类型
	//
	// 调用方未提供分类器时，据此构造以消息类型为主题的分类器。
	RecognizedTypes []int32 `json:"recognized_types,omitempty"`

	// UnrecognizedLogInterval 同一来源节点未识别消息的日志间隔
	UnrecognizedLogInterval Duration `json:"unrecognized_log_interval"`

	// UnrecognizedLogBurst 日志突发上限
	UnrecognizedLogBurst int `json:"unrecognized_log_burst"`

	// PeerCacheSize 未识别消息计数缓存的节点数上限
	PeerCacheSize int `json:"peer_cache_size"`
}

// DefaultPubSubConfig 返回默认发布订阅配置
func DefaultPubSubConfig() PubSubConfig {
	return PubSubConfig{
		Capacity:                1000,
		UnrecognizedLogInterval: Duration(time.Minute),
		UnrecognizedLogBurst:    3,
		PeerCacheSize:           1024,
	}
}

// Validate 验证发布订阅配置
func (c PubSubConfig) Validate() error {
	if c.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}
	if c.IngestBuffer < 0 {
		return errors.New("ingest buffer must be non-negative")
	}
	if c.UnrecognizedLogInterval <= 0 {
		return errors.New("unrecognized log interval must be positive")
	}
	if c.UnrecognizedLogBurst <= 0 {
		return errors.New("unrecognized log burst must be positive")
	}
	if c.PeerCacheSize <= 0 {
		return errors.New("peer cache size must be positive")
	}
	return nil
}

// EffectiveIngestBuffer 返回实际的入站缓冲大小
func (c PubSubConfig) EffectiveIngestBuffer() int {
	if c.IngestBuffer > 0 {
		return c.IngestBuffer
	}
	return c.Capacity
}
