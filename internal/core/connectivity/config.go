package connectivity

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dep2p/go-comms/config"
	"github.com/dep2p/go-comms/pkg/types"
)

// Config 连通性 actor 配置
type Config struct {
	// DegradedThreshold 已连接数达到此值视为 Degraded
	DegradedThreshold int

	// OnlineThreshold 已连接数达到此值视为 Online
	OnlineThreshold int

	// MaxDialAttempts 单次拨号请求的最大尝试次数
	MaxDialAttempts int

	// DialBackoffBase 拨号重试初始退避（0 表示立即重试）
	DialBackoffBase time.Duration

	// DialBackoffMax 拨号重试最大退避
	DialBackoffMax time.Duration

	// DialTimeout 单次尝试超时
	DialTimeout time.Duration

	// MaxConcurrentDials 同时进行的传输层拨号上限
	MaxConcurrentDials int

	// InitialRedialDelay 受管节点首次重拨延迟
	InitialRedialDelay time.Duration

	// MaxRedialDelay 受管节点最大重拨延迟
	MaxRedialDelay time.Duration

	// MaxRedialAttempts 连续重拨上限（0 表示无限）
	MaxRedialAttempts int

	// BackoffMultiplier 退避乘数
	BackoffMultiplier float64

	// EventBufferSize 事件广播容量
	EventBufferSize int

	// MailboxSize 邮箱容量
	MailboxSize int

	// ManagedPeers 启动时加入受管集合的节点
	ManagedPeers []types.PeerID

	// MetricsEnabled 是否向外部 Registerer 注册指标
	MetricsEnabled bool

	// MetricsNamespace 指标命名空间
	MetricsNamespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		DegradedThreshold:  1,
		OnlineThreshold:    3,
		MaxDialAttempts:    3,
		DialBackoffBase:    500 * time.Millisecond,
		DialBackoffMax:     10 * time.Second,
		DialTimeout:        15 * time.Second,
		MaxConcurrentDials: 16,
		InitialRedialDelay: 1 * time.Second,
		MaxRedialDelay:     60 * time.Second,
		MaxRedialAttempts:  0,
		BackoffMultiplier:  2.0,
		EventBufferSize:    100,
		MailboxSize:        64,
		MetricsEnabled:     true,
		MetricsNamespace:   "comms",
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.DegradedThreshold <= 0 {
		return errors.New("connectivity: degraded threshold must be positive")
	}
	if c.OnlineThreshold < c.DegradedThreshold {
		return errors.New("connectivity: online threshold below degraded threshold")
	}
	if c.MaxDialAttempts <= 0 {
		return errors.New("connectivity: max dial attempts must be positive")
	}
	if c.DialBackoffBase < 0 || c.DialBackoffMax < c.DialBackoffBase {
		return errors.New("connectivity: invalid dial backoff")
	}
	if c.DialTimeout <= 0 {
		return errors.New("connectivity: dial timeout must be positive")
	}
	if c.MaxConcurrentDials <= 0 {
		return errors.New("connectivity: max concurrent dials must be positive")
	}
	if c.InitialRedialDelay <= 0 || c.MaxRedialDelay < c.InitialRedialDelay {
		return errors.New("connectivity: invalid redial delay")
	}
	if c.MaxRedialAttempts < 0 {
		return errors.New("connectivity: max redial attempts must be non-negative")
	}
	if c.BackoffMultiplier < 1 {
		return errors.New("connectivity: backoff multiplier must be at least 1")
	}
	if c.EventBufferSize <= 0 || c.MailboxSize <= 0 {
		return errors.New("connectivity: event buffer and mailbox size must be positive")
	}
	return nil
}

// WithThresholds 设置连通性阈值
func (c Config) WithThresholds(degraded, online int) Config {
	c.DegradedThreshold = degraded
	c.OnlineThreshold = online
	return c
}

// WithDialRetry 设置拨号重试
func (c Config) WithDialRetry(attempts int, base, max time.Duration) Config {
	c.MaxDialAttempts = attempts
	c.DialBackoffBase = base
	c.DialBackoffMax = max
	return c
}

// WithManagedPeers 设置启动时的受管节点
func (c Config) WithManagedPeers(peers ...types.PeerID) Config {
	c.ManagedPeers = append([]types.PeerID(nil), peers...)
	return c
}

// ConfigFromUnified 从统一配置创建连通性配置
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return DefaultConfig(), nil
	}
	cc := cfg.Connectivity
	out := Config{
		DegradedThreshold:  cc.DegradedThreshold,
		OnlineThreshold:    cc.OnlineThreshold,
		MaxDialAttempts:    cc.MaxDialAttempts,
		DialBackoffBase:    cc.DialBackoffBase.Duration(),
		DialBackoffMax:     cc.DialBackoffMax.Duration(),
		DialTimeout:        cc.DialTimeout.Duration(),
		MaxConcurrentDials: cc.MaxConcurrentDials,
		InitialRedialDelay: cc.InitialRedialDelay.Duration(),
		MaxRedialDelay:     cc.MaxRedialDelay.Duration(),
		MaxRedialAttempts:  cc.MaxRedialAttempts,
		BackoffMultiplier:  cc.BackoffMultiplier,
		EventBufferSize:    cc.EventBufferSize,
		MailboxSize:        cc.MailboxSize,
		MetricsEnabled:     cfg.Metrics.Enabled,
		MetricsNamespace:   cfg.Metrics.Namespace,
	}
	for _, s := range cc.ManagedPeers {
		id, err := types.ParsePeerID(s)
		if err != nil {
			return Config{}, fmt.Errorf("connectivity: managed peer %q: %w", s, err)
		}
		out.ManagedPeers = append(out.ManagedPeers, id)
	}
	return out, nil
}

// ============================================================================
//                              推导与退避
// ============================================================================

// statusFor 已连接数对应的全局连通性
func (c Config) statusFor(connected int) types.ConnectivityStatus {
	switch {
	case connected >= c.OnlineThreshold:
		return types.StatusOnline
	case connected >= c.DegradedThreshold:
		return types.StatusDegraded
	default:
		return types.StatusOffline
	}
}

// dialBackoff 第 n 次重试（从 1 开始）前的等待时间
func (c Config) dialBackoff(n int) time.Duration {
	return backoff(c.DialBackoffBase, c.DialBackoffMax, c.BackoffMultiplier, n-1)
}

// redialDelay 第 n 次连续重拨（从 0 开始）的延迟
func (c Config) redialDelay(n int) time.Duration {
	return backoff(c.InitialRedialDelay, c.MaxRedialDelay, c.BackoffMultiplier, n)
}

// backoff 计算 base * mult^n，上限 max
func backoff(base, max time.Duration, mult float64, n int) time.Duration {
	if base <= 0 {
		return 0
	}
	if n < 0 {
		n = 0
	}
	d := float64(base) * math.Pow(mult, float64(n))
	if d > float64(max) {
		return max
	}
	return time.Duration(d)
}
