package connectivity

import (
	"context"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
	"github.com/dep2p/go-comms/pkg/types"
)

// ============================================================================
//                              MockConnection
// ============================================================================

// MockConnection 测试用连接
type MockConnection struct {
	peer       types.PeerID
	closed     atomic.Bool
	closeCalls atomic.Int32
}

// NewMockConnection 创建测试连接
func NewMockConnection(peer types.PeerID) *MockConnection {
	return &MockConnection{peer: peer}
}

// RemotePeer 实现 pkgif.Connection
func (c *MockConnection) RemotePeer() types.PeerID { return c.peer }

// IsConnected 实现 pkgif.Connection
func (c *MockConnection) IsConnected() bool { return !c.closed.Load() }

// Close 实现 pkgif.Connection
func (c *MockConnection) Close() error {
	c.closed.Store(true)
	c.closeCalls.Add(1)
	return nil
}

// Closed 是否已关闭
func (c *MockConnection) Closed() bool { return c.closed.Load() }

// ============================================================================
//                              MockConnectionManager
// ============================================================================

// MockConnectionManager 测试用连接管理器
//
// DialFunc 为 nil 时拨号立即成功。Connect/Disconnect/FailDial 模拟生命周期事件。
type MockConnectionManager struct {
	DialFunc func(ctx context.Context, peer types.PeerID) (pkgif.Connection, error)

	mu     sync.Mutex
	dials  map[types.PeerID]int
	events chan pkgif.ConnectionEvent
}

var _ pkgif.ConnectionManager = (*MockConnectionManager)(nil)

// NewMockConnectionManager 创建测试连接管理器
func NewMockConnectionManager() *MockConnectionManager {
	return &MockConnectionManager{
		dials:  make(map[types.PeerID]int),
		events: make(chan pkgif.ConnectionEvent, 256),
	}
}

// Dial 实现 pkgif.ConnectionManager
func (m *MockConnectionManager) Dial(ctx context.Context, peer types.PeerID) (pkgif.Connection, error) {
	m.mu.Lock()
	m.dials[peer]++
	fn := m.DialFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, peer)
	}
	return NewMockConnection(peer), nil
}

// SubscribeEvents 实现 pkgif.ConnectionManager
func (m *MockConnectionManager) SubscribeEvents() (pkgif.ConnectionEventSubscription, error) {
	return &mockEventSubscription{ch: m.events}, nil
}

// DialCount 返回对指定节点的拨号次数
func (m *MockConnectionManager) DialCount(peer types.PeerID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dials[peer]
}

// Connect 模拟连接建立（接入）
func (m *MockConnectionManager) Connect(peer types.PeerID) *MockConnection {
	conn := NewMockConnection(peer)
	m.events <- pkgif.ConnectionEvent{Type: types.ConnEventConnected, PeerID: peer, Conn: conn}
	return conn
}

// Disconnect 模拟连接断开
func (m *MockConnectionManager) Disconnect(conn *MockConnection, reason types.DisconnectReason) {
	_ = conn.Close()
	m.events <- pkgif.ConnectionEvent{
		Type:   types.ConnEventDisconnected,
		PeerID: conn.RemotePeer(),
		Conn:   conn,
		Reason: reason,
	}
}

// FailDial 模拟拨号失败事件
func (m *MockConnectionManager) FailDial(peer types.PeerID, err error) {
	m.events <- pkgif.ConnectionEvent{Type: types.ConnEventDialFailure, PeerID: peer, Err: err}
}

type mockEventSubscription struct {
	ch <-chan pkgif.ConnectionEvent
}

func (s *mockEventSubscription) Out() <-chan pkgif.ConnectionEvent { return s.ch }

func (s *mockEventSubscription) Close() error { return nil }
