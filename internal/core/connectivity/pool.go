package connectivity

import (
	"github.com/benbjohnson/clock"

	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
	"github.com/dep2p/go-comms/pkg/types"
)

// ============================================================================
//                              managedPeer
// ============================================================================

// managedPeer 连接池条目，只在 actor 中访问
type managedPeer struct {
	id      types.PeerID
	conn    pkgif.Connection
	managed bool
	state   types.PeerState

	// 受管节点重拨
	redialTimer    *clock.Timer
	redialAttempts int
}

// healthy 是否持有可用连接
func (p *managedPeer) healthy() bool {
	return p.conn != nil && p.conn.IsConnected()
}

func (p *managedPeer) stopRedial() {
	if p.redialTimer != nil {
		p.redialTimer.Stop()
		p.redialTimer = nil
	}
}

// Stats 连接池统计
type Stats struct {
	Status      types.ConnectivityStatus
	Connected   int
	Peers       int
	Managed     int
	Banned      int
	Dialing     int
	DialWaiters int
	Waiters     int
}

// ============================================================================
//                              池操作（actor 内）
// ============================================================================

func (m *Manager) entry(peer types.PeerID) *managedPeer {
	p, ok := m.peers[peer]
	if !ok {
		p = &managedPeer{id: peer, state: types.PeerStateUnknown}
		m.peers[peer] = p
	}
	return p
}

func (m *Manager) peerState(peer types.PeerID) types.PeerState {
	if _, ok := m.banned[peer]; ok {
		return types.PeerStateBanned
	}
	if p, ok := m.peers[peer]; ok {
		return p.state
	}
	return types.PeerStateUnknown
}

func (m *Manager) stats() Stats {
	s := Stats{
		Status:    m.status,
		Connected: m.connected,
		Peers:     len(m.peers),
		Banned:    len(m.banned),
		Dialing:   len(m.pending),
		Waiters:   len(m.waiters),
	}
	for _, p := range m.peers {
		if p.managed {
			s.Managed++
		}
	}
	for _, pd := range m.pending {
		s.DialWaiters += len(pd.waiters)
	}
	return s
}

// installConn 安装连接句柄
//
// 同一节点已有句柄时关闭旧句柄（被取代），已连接数不变。
func (m *Manager) installConn(p *managedPeer, conn pkgif.Connection) {
	if p.conn == conn {
		return
	}

	if p.conn != nil {
		old := p.conn
		p.conn = conn
		if err := old.Close(); err != nil {
			log.Debug("关闭被取代的连接失败", "peerID", p.id.ShortString(), "err", err)
		}
		log.Debug("连接被取代", "peerID", p.id.ShortString())
	} else {
		p.conn = conn
		m.connected++
		m.emit(types.ConnectivityEvent{Type: types.EventPeerConnected, PeerID: p.id})
		log.Debug("节点已连接", "peerID", p.id.ShortString(), "connected", m.connected)
	}

	p.state = types.PeerStateConnected
	p.redialAttempts = 0
	p.stopRedial()
	m.updateStatus()
}

// dropConn 清除当前句柄
func (m *Manager) dropConn(p *managedPeer, reason types.DisconnectReason) {
	if p.conn == nil {
		return
	}
	p.conn = nil
	m.connected--
	m.emit(types.ConnectivityEvent{Type: types.EventPeerDisconnected, PeerID: p.id, Reason: reason})
	log.Debug("节点已断开",
		"peerID", p.id.ShortString(),
		"reason", reason.String(),
		"connected", m.connected)
	m.updateStatus()
}

// settle 节点失去连接且没有进行中的拨号后的归宿
//
// 受管节点进入 Disconnected 并安排重拨，非受管节点从池中移除。
func (m *Manager) settle(p *managedPeer) {
	if p.conn != nil {
		return
	}
	if _, dialing := m.pending[p.id]; dialing {
		return
	}
	if p.managed {
		p.state = types.PeerStateDisconnected
		m.scheduleRedial(p)
		return
	}
	p.stopRedial()
	delete(m.peers, p.id)
}

// ============================================================================
//                              连接管理器事件
// ============================================================================

func (m *Manager) handleConnectionEvent(ev pkgif.ConnectionEvent) {
	switch ev.Type {
	case types.ConnEventConnected:
		m.onConnected(ev.PeerID, ev.Conn)
	case types.ConnEventDisconnected:
		m.onDisconnected(ev.PeerID, ev.Conn, ev.Reason)
	case types.ConnEventDialFailure:
		m.onDialFailure(ev.PeerID, ev.Err)
	default:
		log.Debug("忽略未知连接事件", "type", ev.Type.String(), "peerID", ev.PeerID.ShortString())
	}
}

func (m *Manager) onConnected(peer types.PeerID, conn pkgif.Connection) {
	if conn == nil {
		return
	}
	if _, banned := m.banned[peer]; banned {
		_ = conn.Close()
		log.Debug("拒绝已封禁节点的连接", "peerID", peer.ShortString())
		return
	}

	p := m.entry(peer)
	m.installConn(p, conn)

	// 接入连接同样满足进行中的拨号
	if pd, ok := m.pending[peer]; ok {
		m.finishDial(pd, p.conn, nil)
	}
}

func (m *Manager) onDisconnected(peer types.PeerID, conn pkgif.Connection, reason types.DisconnectReason) {
	p, ok := m.peers[peer]
	if !ok || p.conn == nil {
		return
	}
	// 只处理当前句柄的断开，被取代的旧句柄忽略
	if conn != nil && conn != p.conn {
		return
	}
	m.dropConn(p, reason)
	m.settle(p)
}

func (m *Manager) onDialFailure(peer types.PeerID, err error) {
	if _, banned := m.banned[peer]; banned {
		return
	}
	m.emit(types.ConnectivityEvent{Type: types.EventPeerConnectFailed, PeerID: peer, Err: err})

	p, ok := m.peers[peer]
	if !ok || p.conn != nil {
		return
	}
	m.settle(p)
}

// ============================================================================
//                              受管集合与封禁
// ============================================================================

func (m *Manager) managePeer(peer types.PeerID) error {
	if _, banned := m.banned[peer]; banned {
		return ErrPeerBanned
	}

	p := m.entry(peer)
	if !p.managed {
		p.managed = true
		log.Debug("节点加入受管集合", "peerID", peer.ShortString())
	}

	if p.healthy() {
		return nil
	}
	if pd, ok := m.pending[peer]; ok {
		pd.internal = true
		return nil
	}
	p.stopRedial()
	m.startDial(p, true)
	return nil
}

func (m *Manager) unmanagePeer(peer types.PeerID) {
	p, ok := m.peers[peer]
	if !ok {
		return
	}
	p.managed = false
	p.redialAttempts = 0
	p.stopRedial()

	if pd, ok := m.pending[peer]; ok {
		pd.internal = false
		if len(pd.waiters) == 0 {
			m.abandonDial(pd)
		}
	}
	m.settle(p)
	log.Debug("节点移出受管集合", "peerID", peer.ShortString())
}

func (m *Manager) banPeer(peer types.PeerID, reason string) {
	if _, already := m.banned[peer]; already {
		return
	}
	m.banned[peer] = reason

	if pd, ok := m.pending[peer]; ok {
		m.finishDial(pd, nil, ErrPeerBanned)
	}
	if p, ok := m.peers[peer]; ok {
		p.stopRedial()
		if conn := p.conn; conn != nil {
			m.dropConn(p, types.DisconnectReasonBanned)
			_ = conn.Close()
		}
		delete(m.peers, peer)
	}

	m.emit(types.ConnectivityEvent{Type: types.EventPeerBanned, PeerID: peer, Detail: reason})
	log.Info("节点已封禁", "peerID", peer.ShortString(), "reason", reason)
}

// ============================================================================
//                              连通性推导与事件
// ============================================================================

// updateStatus 重新推导全局连通性
//
// 值变化时广播一次 StatusChanged，并检查在线等待者。
func (m *Manager) updateStatus() {
	status := m.cfg.statusFor(m.connected)
	if status != m.status {
		prev := m.status
		m.status = status
		m.emit(types.ConnectivityEvent{
			Type:           types.EventStatusChanged,
			Status:         status,
			ConnectedPeers: m.connected,
		})
		log.Info("连通性变化",
			"from", prev.String(),
			"to", status.String(),
			"connected", m.connected)
	}
	m.metrics.observeStatus(m.status, m.connected)
	m.resolveWaiters()
}

func (m *Manager) emit(ev types.ConnectivityEvent) {
	ev.Time = m.clock.Now()
	m.metrics.Events.WithLabelValues(ev.Type.String()).Inc()
	if err := m.events.Emit(ev); err != nil {
		log.Debug("事件广播失败", "event", ev.String(), "err", err)
	}
}
