package config

import (
	"errors"
	"time"
)

// ConnectivityConfig 连通性配置
//
// 配置连接池行为：
//   - 全局连通性阈值（Offline/Degraded/Online）
//   - 按需拨号的重试预算与退避
//   - 受管节点断开后的重拨策略
type ConnectivityConfig struct {
	// DegradedThreshold 已连接数达到此值视为 Degraded
	DegradedThreshold int `json:"degraded_threshold"`

	// OnlineThreshold 已连接数达到此值视为 Online
	OnlineThreshold int `json:"online_threshold"`

	// MaxDialAttempts 单次拨号请求的最大尝试次数
	MaxDialAttempts int `json:"max_dial_attempts"`

	// DialBackoffBase 拨号重试的初始退避
	DialBackoffBase Duration `json:"dial_backoff_base"`

	// DialBackoffMax 拨号重试的最大退避
	DialBackoffMax Duration `json:"dial_backoff_max"`

	// DialTimeout 单次尝试超时
	DialTimeout Duration `json:"dial_timeout"`

	// MaxConcurrentDials 同时进行的传输层拨号上限
	MaxConcurrentDials int `json:"max_concurrent_dials"`

	// InitialRedialDelay 受管节点首次重拨延迟
	InitialRedialDelay Duration `json:"initial_redial_delay"`

	// MaxRedialDelay 受管节点最大重拨延迟
	MaxRedialDelay Duration `json:"max_redial_delay"`

	// MaxRedialAttempts 连续重拨上限（0 表示无限）
	MaxRedialAttempts int `json:"max_redial_attempts"`

	// BackoffMultiplier 退避乘数
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// EventBufferSize 连通性事件广播容量
	EventBufferSize int `json:"event_buffer_size"`

	// MailboxSize actor 邮箱容量
	MailboxSize int `json:"mailbox_size"`

	// ManagedPeers 启动时加入受管集合的节点（Base58）
	ManagedPeers []string `json:"managed_peers,omitempty"`
}

// DefaultConnectivityConfig 返回默认连通性配置
func DefaultConnectivityConfig() ConnectivityConfig {
	return ConnectivityConfig{
		// ════════════════════════════════════════════════════════════════════
		// 连通性阈值
		// ════════════════════════════════════════════════════════════════════
		DegradedThreshold: 1, // 至少 1 个连接：Degraded
		OnlineThreshold:   3, // 至少 3 个连接：Online

		// ════════════════════════════════════════════════════════════════════
		// 按需拨号
		// ════════════════════════════════════════════════════════════════════
		MaxDialAttempts:    3,
		DialBackoffBase:    Duration(500 * time.Millisecond),
		DialBackoffMax:     Duration(10 * time.Second),
		DialTimeout:        Duration(15 * time.Second),
		MaxConcurrentDials: 16,

		// ════════════════════════════════════════════════════════════════════
		// 受管节点重拨
		// ════════════════════════════════════════════════════════════════════
		InitialRedialDelay: Duration(1 * time.Second),
		MaxRedialDelay:     Duration(60 * time.Second),
		MaxRedialAttempts:  0,
		BackoffMultiplier:  2.0,

		EventBufferSize: 100,
		MailboxSize:     64,
	}
}

// Validate 验证连通性配置
func (c ConnectivityConfig) Validate() error {
	if c.DegradedThreshold <= 0 {
		return errors.New("degraded threshold must be positive")
	}
	if c.OnlineThreshold < c.DegradedThreshold {
		return errors.New("online threshold must not be below degraded threshold")
	}
	if c.MaxDialAttempts <= 0 {
		return errors.New("max dial attempts must be positive")
	}
	if c.DialBackoffBase < 0 || c.DialBackoffMax < c.DialBackoffBase {
		return errors.New("dial backoff must satisfy 0 <= base <= max")
	}
	if c.DialTimeout <= 0 {
		return errors.New("dial timeout must be positive")
	}
	if c.MaxConcurrentDials <= 0 {
		return errors.New("max concurrent dials must be positive")
	}
	if c.InitialRedialDelay <= 0 || c.MaxRedialDelay < c.InitialRedialDelay {
		return errors.New("redial delay must satisfy 0 < initial <= max")
	}
	if c.MaxRedialAttempts < 0 {
		return errors.New("max redial attempts must be non-negative")
	}
	if c.BackoffMultiplier < 1 {
		return errors.New("backoff multiplier must be at least 1")
	}
	if c.EventBufferSize <= 0 || c.MailboxSize <= 0 {
		return errors.New("event buffer and mailbox size must be positive")
	}
	return nil
}

// WithThresholds 设置连通性阈值
func (c ConnectivityConfig) WithThresholds(degraded, online int) ConnectivityConfig {
	c.DegradedThreshold = degraded
	c.OnlineThreshold = online
	return c
}

// WithManagedPeers 设置受管节点
func (c ConnectivityConfig) WithManagedPeers(peers ...string) ConnectivityConfig {
	c.ManagedPeers = append([]string(nil), peers...)
	return c
}
