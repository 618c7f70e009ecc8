// Package interfaces 定义 go-comms 公共接口
//
// 本文件定义上游连接管理器接口。连接管理器负责实际的拨号、握手与分帧，
// 由外部提供，本层只消费其拨号能力与生命周期事件流。
package interfaces

import (
	"context"

	"github.com/dep2p/go-comms/pkg/types"
)

// Connection 连接句柄
//
// 由连接管理器在拨号或接入成功时创建，断开、被取代或封禁时销毁。
type Connection interface {
	// RemotePeer 返回远端节点 ID
	RemotePeer() types.PeerID

	// IsConnected 连接是否仍然可用
	IsConnected() bool

	// Close 关闭连接
	Close() error
}

// ConnectionManager 上游连接管理器
type ConnectionManager interface {
	// Dial 拨号到指定节点
	//
	// 返回的错误视为传输层错误，由连通性层按预算重试。
	Dial(ctx context.Context, peer types.PeerID) (Connection, error)

	// SubscribeEvents 订阅连接生命周期事件
	SubscribeEvents() (ConnectionEventSubscription, error)
}

// ConnectionEvent 连接生命周期事件
type ConnectionEvent struct {
	// Type 事件类型
	Type types.ConnectionEventType

	// PeerID 远端节点
	PeerID types.PeerID

	// Conn 相关连接（Connected/Disconnected 时有效）
	Conn Connection

	// Reason 断开原因（Disconnected 时有效）
	Reason types.DisconnectReason

	// Err 失败原因（DialFailure 时有效）
	Err error
}

// ConnectionEventSubscription 连接事件订阅
type ConnectionEventSubscription interface {
	// Out 返回事件通道，订阅关闭后通道关闭
	Out() <-chan ConnectionEvent

	// Close 取消订阅
	Close() error
}
