package comms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-comms/config"
	"github.com/dep2p/go-comms/internal/core/connectivity"
	"github.com/dep2p/go-comms/internal/protocol/pubsub"
	"github.com/dep2p/go-comms/internal/util/logger"
	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
)

var log = logger.Logger("comms")

// ════════════════════════════════════════════════════════════════════════════
//                              节点状态
// ════════════════════════════════════════════════════════════════════════════

// NodeState 节点状态
type NodeState int

const (
	// StateIdle 已创建，未启动
	StateIdle NodeState = iota
	// StateRunning 运行中
	StateRunning
	// StateStopped 已关闭
	StateStopped
)

// String 返回状态字符串
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	// initializeTimeout 启动超时（Fx App Start）
	initializeTimeout = 30 * time.Second

	// shutdownTimeout 关闭超时
	shutdownTimeout = 10 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Node
// ════════════════════════════════════════════════════════════════════════════

// Node 组装连通性 actor 与主题发布者
//
// T 为主题类型，M 为已解码的信封类型。
type Node[T comparable, M pkgif.Envelope] struct {
	mu     sync.Mutex
	config *config.Config
	app    *fx.App
	state  NodeState

	// 由 Fx 注入
	conn *connectivity.Manager
	pub  *pubsub.Publisher[T, M]

	source     <-chan M
	pipeCancel context.CancelFunc
	pipeDone   chan struct{}
}

// New 创建节点
//
// connMgr 负责实际拨号与连接事件，classifier 把消息类型映射到主题。
// classifier 为 nil 时按配置的 RecognizedTypes 构造 TagClassifier（T 须为 types.MessageType）。
func New[T comparable, M pkgif.Envelope](connMgr pkgif.ConnectionManager, classifier pubsub.Classifier[T], opts ...Option) (*Node[T, M], error) {
	if connMgr == nil {
		return nil, connectivity.ErrNilConnectionManager
	}

	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if err := config.ApplyPreset(o.config, o.preset); err != nil {
		return nil, err
	}
	if classifier == nil {
		c, err := pubsub.ClassifierFromTypes[T](o.config.PubSub.RecognizedTypes)
		if err != nil {
			return nil, err
		}
		classifier = c
	}

	n := &Node[T, M]{config: o.config, state: StateIdle}
	if o.source != nil {
		src, ok := o.source.(<-chan M)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrSourceTypeMismatch, o.source)
		}
		n.source = src
	}

	if o.config.Log.Level != "" || o.config.Log.Format != "" {
		logger.Configure(o.config.Log.Level, o.config.Log.Format)
	}

	app, err := buildFxApp(o, connMgr, classifier, n)
	if err != nil {
		return nil, err
	}
	n.app = app
	return n, nil
}

// Start 启动节点
//
// 启动连通性 actor，并在配置了信封源时开始接入。
func (n *Node[T, M]) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateStopped:
		return ErrNodeClosed
	case StateRunning:
		return ErrAlreadyStarted
	}

	initCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()
	if err := n.app.Start(initCtx); err != nil {
		log.Error("节点启动失败", "err", err)
		return fmt.Errorf("initialize failed: %w", err)
	}

	if n.source != nil {
		pipeCtx, pipeCancel := context.WithCancel(context.Background())
		n.pipeCancel = pipeCancel
		n.pipeDone = make(chan struct{})
		go n.pipe(pipeCtx)
	}

	n.state = StateRunning
	log.Info("节点已启动",
		"onlineThreshold", n.config.Connectivity.OnlineThreshold,
		"capacity", n.config.PubSub.Capacity)
	return nil
}

func (n *Node[T, M]) pipe(ctx context.Context) {
	defer close(n.pipeDone)

	err := n.pub.PipeFrom(ctx, n.source)
	switch {
	case err == nil:
		log.Info("信封源已结束")
	case errors.Is(err, context.Canceled), errors.Is(err, pubsub.ErrPublisherClosed):
	default:
		log.Warn("信封源接入中断", "err", err)
	}
}

// Close 关闭节点，可重复调用
func (n *Node[T, M]) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateStopped {
		return nil
	}
	wasRunning := n.state == StateRunning
	n.state = StateStopped

	if n.pipeCancel != nil {
		n.pipeCancel()
		<-n.pipeDone
	}

	var errs error
	if wasRunning {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errs = multierr.Append(errs, n.app.Stop(ctx))
	} else {
		errs = multierr.Append(errs, n.conn.Close())
		errs = multierr.Append(errs, n.pub.Close())
	}

	if errs != nil {
		log.Warn("节点关闭时出现错误", "err", errs)
	} else {
		log.Info("节点已关闭")
	}
	return errs
}

// State 返回节点状态
func (n *Node[T, M]) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Config 返回节点配置
func (n *Node[T, M]) Config() *config.Config {
	return n.config
}

// Connectivity 返回连通性服务
func (n *Node[T, M]) Connectivity() pkgif.Connectivity {
	return n.conn
}

// ConnectivityStats 返回连接池统计
func (n *Node[T, M]) ConnectivityStats(ctx context.Context) (connectivity.Stats, error) {
	return n.conn.Stats(ctx)
}

// PubSub 返回主题发布者
func (n *Node[T, M]) PubSub() *pubsub.Publisher[T, M] {
	return n.pub
}

// Subscribe 订阅主题
func (n *Node[T, M]) Subscribe(topic T, label string) (*pubsub.TopicSubscription[T, M], error) {
	return n.pub.Subscribe(topic, label)
}

// Publish 提交一条已解码的信封
func (n *Node[T, M]) Publish(ctx context.Context, msg M) error {
	return n.pub.Publish(ctx, msg)
}
