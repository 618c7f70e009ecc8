package connectivity

import (
	"context"
	"fmt"
	"time"

	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
	"github.com/dep2p/go-comms/pkg/types"
)

// ============================================================================
//                              进行中的拨号
// ============================================================================

// pendingDial 同一节点共享的拨号句柄
type pendingDial struct {
	peer    types.PeerID
	cancel  context.CancelFunc
	waiters map[uint64]chan dialResult

	// internal 受管节点发起的拨号，等待者离开时不取消
	internal bool
}

type dialResult struct {
	conn pkgif.Connection
	err  error
}

// dialTicket actor 对拨号请求的答复
//
// wait 为 nil 时 result 即最终结果。
type dialTicket struct {
	id     uint64
	wait   chan dialResult
	result dialResult
}

// DialPeer 获取到指定节点的连接
//
// 已有健康连接时直接返回；否则加入或发起同一节点的拨号。
// 调用者取消 ctx 返回 ErrDialCancelled，不影响其他等待者。
func (m *Manager) DialPeer(ctx context.Context, peer types.PeerID) (pkgif.Connection, error) {
	t, err := callOrRelease(ctx, m,
		func() dialTicket { return m.requestDial(ctx, peer) },
		func(t dialTicket) {
			if t.wait != nil {
				m.post(func() { m.leaveDial(peer, t.id) })
			}
		})
	if err != nil {
		return nil, err
	}
	if t.wait == nil {
		return t.result.conn, t.result.err
	}

	select {
	case r := <-t.wait:
		return r.conn, r.err
	case <-ctx.Done():
		m.post(func() { m.leaveDial(peer, t.id) })
		return nil, fmt.Errorf("%w: %w", ErrDialCancelled, ctx.Err())
	case <-m.done:
		select {
		case r := <-t.wait:
			return r.conn, r.err
		default:
			return nil, ErrActorUnavailable
		}
	}
}

// requestDial 在 actor 中处理拨号请求
//
// 调用者在请求出队前已取消时不登记等待者，也不发起拨号。
func (m *Manager) requestDial(ctx context.Context, peer types.PeerID) dialTicket {
	if err := ctx.Err(); err != nil {
		return dialTicket{result: dialResult{err: fmt.Errorf("%w: %w", ErrDialCancelled, err)}}
	}
	if _, banned := m.banned[peer]; banned {
		return dialTicket{result: dialResult{err: ErrPeerBanned}}
	}

	p := m.entry(peer)
	if p.healthy() {
		m.metrics.DialRequests.WithLabelValues("reused").Inc()
		return dialTicket{result: dialResult{conn: p.conn}}
	}
	if p.conn != nil {
		// 句柄已失效但尚未收到断开事件
		m.dropConn(p, types.DisconnectReasonError)
	}

	pd, ok := m.pending[peer]
	if ok {
		m.metrics.DialRequests.WithLabelValues("coalesced").Inc()
	} else {
		m.metrics.DialRequests.WithLabelValues("started").Inc()
		p.stopRedial()
		pd = m.startDial(p, false)
	}

	m.nextID++
	ch := make(chan dialResult, 1)
	pd.waiters[m.nextID] = ch
	return dialTicket{id: m.nextID, wait: ch}
}

// leaveDial 等待者放弃
//
// 调用者发起的拨号在最后一个等待者离开后取消。
func (m *Manager) leaveDial(peer types.PeerID, id uint64) {
	pd, ok := m.pending[peer]
	if !ok {
		return
	}
	if _, ok := pd.waiters[id]; !ok {
		return
	}
	delete(pd.waiters, id)
	m.metrics.DialRequests.WithLabelValues("cancelled").Inc()

	if len(pd.waiters) == 0 && !pd.internal {
		m.abandonDial(pd)
		if p, ok := m.peers[peer]; ok {
			m.settle(p)
		}
	}
}

// abandonDial 取消没有等待者的拨号
func (m *Manager) abandonDial(pd *pendingDial) {
	pd.cancel()
	delete(m.pending, pd.peer)
	log.Debug("拨号已取消", "peerID", pd.peer.ShortString())
}

// startDial 发起拨号，在独立 goroutine 中执行
func (m *Manager) startDial(p *managedPeer, internal bool) *pendingDial {
	ctx, cancel := context.WithCancel(m.ctx)
	pd := &pendingDial{
		peer:     p.id,
		cancel:   cancel,
		waiters:  make(map[uint64]chan dialResult),
		internal: internal,
	}
	m.pending[p.id] = pd
	p.state = types.PeerStateDialing

	m.dials.Add(1)
	go m.runDial(ctx, pd)
	return pd
}

// runDial 带重试的拨号，不在 actor 中执行
func (m *Manager) runDial(ctx context.Context, pd *pendingDial) {
	defer m.dials.Done()

	var (
		lastErr  error
		attempts int
	)
	for attempt := 1; attempt <= m.cfg.MaxDialAttempts; attempt++ {
		if attempt > 1 {
			if err := m.sleep(ctx, m.cfg.dialBackoff(attempt-1)); err != nil {
				lastErr = err
				break
			}
		}

		if err := m.sem.Acquire(ctx, 1); err != nil {
			lastErr = err
			break
		}
		attempts++
		dctx, cancel := context.WithTimeout(ctx, m.cfg.DialTimeout)
		conn, err := m.connMgr.Dial(dctx, pd.peer)
		cancel()
		m.sem.Release(1)

		if err == nil {
			m.metrics.DialAttempts.WithLabelValues("success").Inc()
			if !m.post(func() { m.completeDial(pd, conn, nil, attempts) }) {
				_ = conn.Close()
			}
			return
		}

		m.metrics.DialAttempts.WithLabelValues("failure").Inc()
		lastErr = err
		log.Debug("拨号尝试失败",
			"peerID", pd.peer.ShortString(),
			"attempt", attempt,
			"err", err)
		if ctx.Err() != nil {
			break
		}
	}

	m.post(func() { m.completeDial(pd, nil, lastErr, attempts) })
}

// sleep 按 clock 等待，可被 ctx 打断
func (m *Manager) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := m.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// completeDial 拨号 goroutine 结束后在 actor 中处理结果
func (m *Manager) completeDial(pd *pendingDial, conn pkgif.Connection, err error, attempts int) {
	if cur, ok := m.pending[pd.peer]; !ok || cur != pd {
		// 已被取消、封禁或被接入连接满足
		m.adoptStale(pd.peer, conn)
		return
	}

	p := m.entry(pd.peer)
	if err == nil {
		m.installConn(p, conn)
		m.finishDial(pd, p.conn, nil)
		return
	}

	dErr := &DialError{Peer: pd.peer, Attempts: attempts, Err: err}
	m.finishDial(pd, nil, dErr)
	m.emit(types.ConnectivityEvent{Type: types.EventPeerConnectFailed, PeerID: pd.peer, Err: dErr})
	log.Debug("拨号失败", "peerID", pd.peer.ShortString(), "attempts", attempts, "err", err)

	if p.conn == nil {
		if !p.managed {
			p.state = types.PeerStateUnknown
		}
		m.settle(p)
	}
}

// adoptStale 处理已失去等待者的拨号结果
func (m *Manager) adoptStale(peer types.PeerID, conn pkgif.Connection) {
	if conn == nil {
		return
	}
	if _, banned := m.banned[peer]; banned {
		_ = conn.Close()
		return
	}
	if p, ok := m.peers[peer]; ok && p.healthy() {
		_ = conn.Close()
		return
	}
	m.installConn(m.entry(peer), conn)
}

// finishDial 向所有等待者分发结果并移除拨号句柄
func (m *Manager) finishDial(pd *pendingDial, conn pkgif.Connection, err error) {
	res := dialResult{conn: conn, err: err}
	for _, ch := range pd.waiters {
		ch <- res
	}
	pd.waiters = nil
	pd.cancel()
	delete(m.pending, pd.peer)
}

// ============================================================================
//                              受管节点重拨
// ============================================================================

// scheduleRedial 按退避安排重拨
func (m *Manager) scheduleRedial(p *managedPeer) {
	if !p.managed || p.redialTimer != nil {
		return
	}
	if m.cfg.MaxRedialAttempts > 0 && p.redialAttempts >= m.cfg.MaxRedialAttempts {
		log.Warn("受管节点重拨次数耗尽",
			"peerID", p.id.ShortString(),
			"attempts", p.redialAttempts)
		return
	}

	delay := m.cfg.redialDelay(p.redialAttempts)
	p.redialAttempts++
	peer := p.id
	p.redialTimer = m.clock.AfterFunc(delay, func() {
		m.post(func() { m.redial(peer) })
	})
	m.metrics.Redials.Inc()
	log.Debug("安排重拨",
		"peerID", peer.ShortString(),
		"delay", delay,
		"attempt", p.redialAttempts)
}

func (m *Manager) redial(peer types.PeerID) {
	p, ok := m.peers[peer]
	if !ok {
		return
	}
	p.redialTimer = nil
	if !p.managed || p.healthy() {
		return
	}
	if pd, ok := m.pending[peer]; ok {
		pd.internal = true
		return
	}
	m.startDial(p, true)
}
