package pubsub

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-comms/internal/core/eventbus"
	"github.com/dep2p/go-comms/internal/util/logger"
	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
)

var log = logger.Logger("protocol/pubsub")

// TopicPayload 分类后的消息
type TopicPayload[T comparable, M any] struct {
	Topic   T
	Message M
}

// ============================================================================
//                              Publisher
// ============================================================================

// Publisher 主题发布者，同时也是订阅工厂
type Publisher[T comparable, M pkgif.Envelope] struct {
	cfg        Config
	classifier Classifier[T]
	policy     *UnrecognizedPolicy
	metrics    *Metrics
	bus        *eventbus.Bus[TopicPayload[T, M]]

	ingest  chan M
	closing chan struct{} // 唤醒阻塞的 Publish
	stopped chan struct{} // 不再有写入者，run 排空后退出
	done    chan struct{}

	// 持读锁写入 ingest；Close 持写锁后不再有新的写入
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	published atomic.Uint64
}

// Option Publisher 选项
type Option func(*options)

type options struct {
	metrics *Metrics
	reg     prometheus.Registerer
}

// WithMetrics 使用已有指标
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRegisterer 在指定 Registerer 上创建指标
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.reg = reg }
}

// NewPublisher 创建发布者并启动分类 goroutine
func NewPublisher[T comparable, M pkgif.Envelope](cfg Config, classifier Classifier[T], opts ...Option) (*Publisher[T, M], error) {
	if classifier == nil {
		return nil, ErrNilClassifier
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(o.reg, cfg.MetricsNamespace)
	}

	policy, err := NewUnrecognizedPolicy(cfg.UnrecognizedLogInterval, cfg.UnrecognizedLogBurst, cfg.PeerCacheSize, o.metrics)
	if err != nil {
		return nil, err
	}
	bus, err := eventbus.New[TopicPayload[T, M]]("pubsub", cfg.Capacity)
	if err != nil {
		return nil, err
	}

	p := &Publisher[T, M]{
		cfg:        cfg,
		classifier: classifier,
		policy:     policy,
		metrics:    o.metrics,
		bus:        bus,
		ingest:     make(chan M, cfg.IngestBuffer),
		closing:    make(chan struct{}),
		stopped:    make(chan struct{}),
		done:       make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// Publish 提交一条已解码的信封
//
// 入站缓冲满时阻塞，直到有空间、ctx 结束或发布者关闭。
// 返回 nil 的信封一定会被分类，关闭期间也不例外。
func (p *Publisher[T, M]) Publish(ctx context.Context, msg M) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.ingest <- msg:
		return nil
	case <-p.closing:
		return ErrPublisherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PipeFrom 把上游信封流接入发布者
//
// 阻塞直到 src 关闭（返回 nil）、ctx 结束或发布者关闭。
func (p *Publisher[T, M]) PipeFrom(ctx context.Context, src <-chan M) error {
	for {
		select {
		case msg, ok := <-src:
			if !ok {
				return nil
			}
			if err := p.Publish(ctx, msg); err != nil {
				return err
			}
		case <-p.closing:
			return ErrPublisherClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Subscribe 订阅主题
//
// 只能收到订阅之后发布的消息。label 仅用于诊断。
func (p *Publisher[T, M]) Subscribe(topic T, label string) (*TopicSubscription[T, M], error) {
	sub, err := p.bus.Subscribe(label)
	if err != nil {
		return nil, ErrPublisherClosed
	}
	p.metrics.Subscribers.Inc()
	return newTopicSubscription(topic, label, sub, p.metrics), nil
}

// Close 关闭发布者
//
// 已进入入站缓冲的信封仍会被分类发布；订阅者读完剩余消息后收到 ErrPublisherClosed。
func (p *Publisher[T, M]) Close() error {
	p.closeOnce.Do(func() {
		close(p.closing)

		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		close(p.stopped)
		<-p.done
	})
	return nil
}

// Stats 发布者统计
type Stats struct {
	Published    uint64
	Unrecognized uint64
	Subscribers  int
	Queued       int
}

// Stats 返回统计
func (p *Publisher[T, M]) Stats() Stats {
	return Stats{
		Published:    p.published.Load(),
		Unrecognized: p.policy.Total(),
		Subscribers:  p.bus.Subscribers(),
		Queued:       len(p.ingest),
	}
}

// Policy 返回未识别消息策略
func (p *Publisher[T, M]) Policy() *UnrecognizedPolicy {
	return p.policy
}

// ============================================================================
//                              分类循环
// ============================================================================

func (p *Publisher[T, M]) run() {
	defer close(p.done)

	for {
		select {
		case msg := <-p.ingest:
			p.dispatch(msg)
		case <-p.stopped:
			p.drain()
			_ = p.bus.Close()
			log.Debug("发布者已关闭", "published", p.published.Load())
			return
		}
	}
}

func (p *Publisher[T, M]) drain() {
	for {
		select {
		case msg := <-p.ingest:
			p.dispatch(msg)
		default:
			return
		}
	}
}

// dispatch 分类并写入广播环
func (p *Publisher[T, M]) dispatch(msg M) {
	p.metrics.Queued.Set(float64(len(p.ingest)))

	topic, ok := p.classifier.Classify(msg.MessageType())
	if !ok {
		p.policy.Handle(msg)
		return
	}

	if err := p.bus.Emit(TopicPayload[T, M]{Topic: topic, Message: msg}); err != nil {
		return
	}
	p.published.Add(1)
	p.metrics.Published.WithLabelValues(fmt.Sprint(topic)).Inc()
}
