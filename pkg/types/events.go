package types

import (
	"fmt"
	"time"
)

// ============================================================================
//                              连通性事件
// ============================================================================

// ConnectivityEventType 连通性事件类型
type ConnectivityEventType int

const (
	// EventPeerConnected 节点已连接
	EventPeerConnected ConnectivityEventType = iota + 1
	// EventPeerDisconnected 节点已断开
	EventPeerDisconnected
	// EventPeerConnectFailed 拨号重试预算耗尽
	EventPeerConnectFailed
	// EventPeerBanned 节点被封禁
	EventPeerBanned
	// EventStatusChanged 全局连通性变化
	EventStatusChanged
)

// String 返回事件类型字符串
func (t ConnectivityEventType) String() string {
	switch t {
	case EventPeerConnected:
		return "peer_connected"
	case EventPeerDisconnected:
		return "peer_disconnected"
	case EventPeerConnectFailed:
		return "peer_connect_failed"
	case EventPeerBanned:
		return "peer_banned"
	case EventStatusChanged:
		return "status_changed"
	default:
		return "unknown"
	}
}

// ConnectivityEvent 连通性事件
//
// 不可变，广播给所有当前订阅者。不同类型使用不同字段：
//   - PeerConnected: PeerID
//   - PeerDisconnected: PeerID, Reason
//   - PeerConnectFailed: PeerID, Err
//   - PeerBanned: PeerID, Detail
//   - StatusChanged: Status, ConnectedPeers
type ConnectivityEvent struct {
	Type           ConnectivityEventType
	PeerID         PeerID
	Reason         DisconnectReason
	Status         ConnectivityStatus
	ConnectedPeers int
	Err            error
	Detail         string
	Time           time.Time
}

// String 返回事件的简短描述
func (e ConnectivityEvent) String() string {
	switch e.Type {
	case EventStatusChanged:
		return fmt.Sprintf("%s(%s, peers=%d)", e.Type, e.Status, e.ConnectedPeers)
	case EventPeerDisconnected:
		return fmt.Sprintf("%s(%s, %s)", e.Type, e.PeerID.ShortString(), e.Reason)
	default:
		return fmt.Sprintf("%s(%s)", e.Type, e.PeerID.ShortString())
	}
}

// ============================================================================
//                              连接管理器事件（上游）
// ============================================================================

// ConnectionEventType 上游连接管理器的生命周期事件类型
type ConnectionEventType int

const (
	// ConnEventConnected 连接建立（拨出或接入）
	ConnEventConnected ConnectionEventType = iota + 1
	// ConnEventDisconnected 连接断开
	ConnEventDisconnected
	// ConnEventDialFailure 拨号失败
	ConnEventDialFailure
)

// String 返回事件类型字符串
func (t ConnectionEventType) String() string {
	switch t {
	case ConnEventConnected:
		return "connected"
	case ConnEventDisconnected:
		return "disconnected"
	case ConnEventDialFailure:
		return "dial_failure"
	default:
		return "unknown"
	}
}
