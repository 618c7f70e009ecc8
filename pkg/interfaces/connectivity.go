package interfaces

import (
	"context"
	"time"

	"github.com/dep2p/go-comms/pkg/types"
)

// Connectivity 连通性服务
//
// 连接池的唯一所有者，所有操作都是对其内部 actor 的异步请求。
// actor 停止后，所有调用返回 types.ErrActorUnavailable。
type Connectivity interface {
	// DialPeer 获取到指定节点的连接
	//
	// 已有健康连接时直接返回；否则发起或加入同一节点的进行中拨号。
	// 取消 ctx 只影响本调用者（types.ErrDialCancelled）；重试耗尽返回
	// *types.DialError，封禁节点返回 types.ErrPeerBanned。
	DialPeer(ctx context.Context, peer types.PeerID) (Connection, error)

	// GetConnection 非阻塞查询，未知或已断开时返回 nil, nil
	GetConnection(ctx context.Context, peer types.PeerID) (Connection, error)

	// WaitForOnline 等待已连接节点数达到 minPeers
	//
	// 超时返回 *types.TimeoutError，携带超时时刻的已连接数。
	WaitForOnline(ctx context.Context, minPeers int, timeout time.Duration) error

	// ManagePeer 将节点加入受管集合（断开后主动重拨）
	ManagePeer(ctx context.Context, peer types.PeerID) error

	// UnmanagePeer 将节点移出受管集合
	UnmanagePeer(ctx context.Context, peer types.PeerID) error

	// BanPeer 封禁节点（吸收态）
	BanPeer(ctx context.Context, peer types.PeerID, reason string) error

	// ConnectedPeers 返回当前已连接节点
	ConnectedPeers(ctx context.Context) ([]types.PeerID, error)

	// Status 返回当前全局连通性
	Status(ctx context.Context) (types.ConnectivityStatus, error)

	// SubscribeEvents 订阅连通性事件
	SubscribeEvents() (Stream[types.ConnectivityEvent], error)
}
