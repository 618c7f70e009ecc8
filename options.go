package comms

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-comms/config"
	"github.com/dep2p/go-comms/pkg/types"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config     *config.Config
	preset     string
	registerer prometheus.Registerer
	clock      clock.Clock
	source     any
	fxOptions  []fx.Option
}

func newOptions() *options {
	return &options{config: config.NewConfig()}
}

// WithConfig 使用完整配置（会被复制）
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		o.config = cfg.Clone()
		return nil
	}
}

// WithConfigJSON 从 JSON 加载配置
func WithConfigJSON(data []byte) Option {
	return func(o *options) error {
		cfg, err := config.FromJSON(data)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithPreset 应用预设（wallet / basenode / test）
//
// 预设在所有选项处理完后应用于最终配置之上。
func WithPreset(name string) Option {
	return func(o *options) error {
		o.preset = name
		return nil
	}
}

// WithThresholds 设置连通性阈值
func WithThresholds(degraded, online int) Option {
	return func(o *options) error {
		o.config.Connectivity = o.config.Connectivity.WithThresholds(degraded, online)
		return nil
	}
}

// WithManagedPeers 启动时把节点加入受管集合
func WithManagedPeers(peers ...types.PeerID) Option {
	return func(o *options) error {
		for _, p := range peers {
			o.config.Connectivity.ManagedPeers = append(o.config.Connectivity.ManagedPeers, p.String())
		}
		return nil
	}
}

// WithPubSubCapacity 设置广播环容量
func WithPubSubCapacity(capacity int) Option {
	return func(o *options) error {
		o.config.PubSub.Capacity = capacity
		return nil
	}
}

// WithRecognizedTypes 设置可识别的消息类型
//
// 以 nil 分类器创建节点时，据此构造以消息类型为主题的分类器。
func WithRecognizedTypes(msgTypes ...types.MessageType) Option {
	return func(o *options) error {
		recognized := make([]int32, len(msgTypes))
		for i, t := range msgTypes {
			recognized[i] = int32(t)
		}
		o.config.PubSub.RecognizedTypes = recognized
		return nil
	}
}

// WithLogLevel 设置日志级别与格式
func WithLogLevel(levelSpec, format string) Option {
	return func(o *options) error {
		o.config.Log.Level = levelSpec
		o.config.Log.Format = format
		return nil
	}
}

// WithRegisterer 把指标注册到指定 Registerer
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithClock 设置连通性 actor 使用的时钟
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		o.clock = c
		return nil
	}
}

// WithEnvelopeSource 启动后把上游信封流接入发布者
//
// M 必须与节点的信封类型一致，否则 New 返回 ErrSourceTypeMismatch。
func WithEnvelopeSource[M any](src <-chan M) Option {
	return func(o *options) error {
		if src == nil {
			return fmt.Errorf("envelope source is nil")
		}
		o.source = src
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
