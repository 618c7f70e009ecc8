package connectivity

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/dep2p/go-comms/internal/core/eventbus"
	"github.com/dep2p/go-comms/internal/util/logger"
	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
	"github.com/dep2p/go-comms/pkg/types"
)

var log = logger.Logger("core/connectivity")

// ============================================================================
//                              Manager 结构
// ============================================================================

// Manager 连通性 actor
type Manager struct {
	cfg     Config
	connMgr pkgif.ConnectionManager
	clock   clock.Clock
	metrics *Metrics
	sem     *semaphore.Weighted
	events  *eventbus.Bus[types.ConnectivityEvent]

	mailbox chan func()
	stop    chan struct{}
	done    chan struct{} // actor 退出后关闭

	started   atomic.Bool
	running   atomic.Bool
	closeOnce sync.Once
	closeErr  error

	// 拨号 goroutine 的根上下文
	ctx    context.Context
	cancel context.CancelFunc
	dials  sync.WaitGroup

	connSub    pkgif.ConnectionEventSubscription
	connEvents <-chan pkgif.ConnectionEvent

	// 以下字段只在 actor goroutine 中访问
	peers     map[types.PeerID]*managedPeer
	banned    map[types.PeerID]string
	pending   map[types.PeerID]*pendingDial
	waiters   map[uint64]*onlineWaiter
	nextID    uint64
	connected int
	status    types.ConnectivityStatus
}

var _ pkgif.Connectivity = (*Manager)(nil)

// Option Manager 选项
type Option func(*Manager)

// WithClock 设置时钟（测试中使用 clock.NewMock()）
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithRegisterer 在指定 Registerer 上创建指标
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		m.metrics = NewMetrics(reg, m.cfg.MetricsNamespace)
	}
}

// NewManager 创建连通性 actor
//
// 需要调用 Start 后才能处理请求。
func NewManager(cfg Config, connMgr pkgif.ConnectionManager, opts ...Option) (*Manager, error) {
	if connMgr == nil {
		return nil, ErrNilConnectionManager
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	events, err := eventbus.New[types.ConnectivityEvent]("connectivity", cfg.EventBufferSize)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:     cfg,
		connMgr: connMgr,
		clock:   clock.New(),
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrentDials)),
		events:  events,
		mailbox: make(chan func(), cfg.MailboxSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		peers:   make(map[types.PeerID]*managedPeer),
		banned:  make(map[types.PeerID]string),
		pending: make(map[types.PeerID]*pendingDial),
		waiters: make(map[uint64]*onlineWaiter),
		status:  types.StatusOffline,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil, cfg.MetricsNamespace)
	}
	m.metrics.observeStatus(m.status, 0)
	return m, nil
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 订阅连接管理器事件并启动 actor
func (m *Manager) Start(_ context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	sub, err := m.connMgr.SubscribeEvents()
	if err != nil {
		m.started.Store(false)
		return fmt.Errorf("connectivity: subscribe connection events: %w", err)
	}
	m.connSub = sub
	m.connEvents = sub.Out()

	m.running.Store(true)
	go m.loop()

	for _, peer := range m.cfg.ManagedPeers {
		peer := peer
		m.post(func() { m.managePeer(peer) })
	}

	log.Info("连通性 actor 已启动",
		"degradedThreshold", m.cfg.DegradedThreshold,
		"onlineThreshold", m.cfg.OnlineThreshold,
		"managedPeers", len(m.cfg.ManagedPeers))
	return nil
}

// Close 停止 actor
//
// 取消所有进行中的拨号，关闭持有的连接并汇总关闭错误。可重复调用。
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		if m.started.Load() {
			close(m.stop)
			<-m.done
		} else {
			m.running.Store(false)
			close(m.done)
		}
		m.cancel()
		m.dials.Wait()
		_ = m.events.Close()
	})
	return m.closeErr
}

// loop actor 主循环
func (m *Manager) loop() {
	defer close(m.done)
	defer func() {
		m.running.Store(false)
		if r := recover(); r != nil {
			log.Error("连通性 actor 异常退出",
				"panic", r,
				"stack", string(debug.Stack()))
			m.shutdown()
		}
	}()

	for {
		select {
		case fn := <-m.mailbox:
			fn()
		case ev, ok := <-m.connEvents:
			if !ok {
				log.Warn("连接事件流已关闭")
				m.connEvents = nil
				continue
			}
			m.handleConnectionEvent(ev)
		case <-m.stop:
			m.shutdown()
			return
		}
	}
}

// shutdown 在 actor 内释放资源
func (m *Manager) shutdown() {
	m.cancel()

	var errs error
	for id, p := range m.peers {
		p.stopRedial()
		if p.conn != nil {
			if err := p.conn.Close(); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("close %s: %w", id.ShortString(), err))
			}
			p.conn = nil
		}
	}
	for _, w := range m.waiters {
		w.stopTimer()
	}
	if m.connSub != nil {
		errs = multierr.Append(errs, m.connSub.Close())
	}
	m.closeErr = errs

	log.Info("连通性 actor 已停止", "peers", len(m.peers), "pendingDials", len(m.pending))
}

// ============================================================================
//                              邮箱
// ============================================================================

// submit 投递请求
func (m *Manager) submit(ctx context.Context, fn func()) error {
	if !m.running.Load() {
		return ErrActorUnavailable
	}
	// 已取消的请求不进入邮箱
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRequestCancelled, err)
	}
	select {
	case m.mailbox <- fn:
		return nil
	case <-m.done:
		return ErrActorUnavailable
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrRequestCancelled, ctx.Err())
	}
}

// post 内部投递，actor 退出后返回 false
func (m *Manager) post(fn func()) bool {
	select {
	case m.mailbox <- fn:
		return true
	case <-m.done:
		return false
	}
}

// call 投递请求并等待 actor 的答复
func call[R any](ctx context.Context, m *Manager, fn func() R) (R, error) {
	return callOrRelease(ctx, m, fn, nil)
}

// callOrRelease 同 call，调用者放弃后由 release 回收 actor 已经登记的资源
//
// 请求进入邮箱后调用者才取消时，答复仍会产生；release 在后台 goroutine 中
// 接收该答复并释放其占用的等待项。
func callOrRelease[R any](ctx context.Context, m *Manager, fn func() R, release func(R)) (R, error) {
	var zero R
	reply := make(chan R, 1)
	if err := m.submit(ctx, func() { reply <- fn() }); err != nil {
		return zero, err
	}
	select {
	case r := <-reply:
		return r, nil
	case <-m.done:
		select {
		case r := <-reply:
			return r, nil
		default:
			return zero, ErrActorUnavailable
		}
	case <-ctx.Done():
		if release != nil {
			go func() {
				select {
				case r := <-reply:
					release(r)
				case <-m.done:
				}
			}()
		}
		return zero, fmt.Errorf("%w: %w", ErrRequestCancelled, ctx.Err())
	}
}

// ============================================================================
//                              公开 API
// ============================================================================

// GetConnection 非阻塞查询连接，未知或已断开时返回 nil, nil
func (m *Manager) GetConnection(ctx context.Context, peer types.PeerID) (pkgif.Connection, error) {
	return call(ctx, m, func() pkgif.Connection {
		if p, ok := m.peers[peer]; ok && p.healthy() {
			return p.conn
		}
		return nil
	})
}

// ManagePeer 将节点加入受管集合
//
// 节点未连接时立即发起内部拨号。
func (m *Manager) ManagePeer(ctx context.Context, peer types.PeerID) error {
	res, err := call(ctx, m, func() error { return m.managePeer(peer) })
	if err != nil {
		return err
	}
	return res
}

// UnmanagePeer 将节点移出受管集合
func (m *Manager) UnmanagePeer(ctx context.Context, peer types.PeerID) error {
	_, err := call(ctx, m, func() struct{} {
		m.unmanagePeer(peer)
		return struct{}{}
	})
	return err
}

// BanPeer 封禁节点
//
// 关闭现有连接，取消进行中的拨号，之后该节点的接入连接会被立即关闭。
func (m *Manager) BanPeer(ctx context.Context, peer types.PeerID, reason string) error {
	_, err := call(ctx, m, func() struct{} {
		m.banPeer(peer, reason)
		return struct{}{}
	})
	return err
}

// ConnectedPeers 返回当前已连接节点
func (m *Manager) ConnectedPeers(ctx context.Context) ([]types.PeerID, error) {
	return call(ctx, m, func() []types.PeerID {
		out := make([]types.PeerID, 0, m.connected)
		for id, p := range m.peers {
			if p.conn != nil {
				out = append(out, id)
			}
		}
		return out
	})
}

// Status 返回当前全局连通性
func (m *Manager) Status(ctx context.Context) (types.ConnectivityStatus, error) {
	return call(ctx, m, func() types.ConnectivityStatus { return m.status })
}

// PeerState 返回节点状态
func (m *Manager) PeerState(ctx context.Context, peer types.PeerID) (types.PeerState, error) {
	return call(ctx, m, func() types.PeerState { return m.peerState(peer) })
}

// Stats 返回连接池统计
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	return call(ctx, m, m.stats)
}

// SubscribeEvents 订阅连通性事件
//
// 只能看到订阅之后的事件。
func (m *Manager) SubscribeEvents() (pkgif.Stream[types.ConnectivityEvent], error) {
	if !m.running.Load() {
		return nil, ErrActorUnavailable
	}
	sub, err := m.events.Subscribe("connectivity")
	if err != nil {
		return nil, ErrActorUnavailable
	}
	return sub, nil
}
