package types

// ============================================================================
//                              PeerState - 节点连接状态
// ============================================================================

// PeerState 连接池中单个节点的状态
//
// 状态转换：
//
//	Unknown → Dialing → Connected → Disconnected
//	Disconnected → Dialing（受管节点）
//	Disconnected → Unknown（非受管节点）
//	任意状态 → Banned（吸收态，不可离开）
type PeerState int

const (
	// PeerStateUnknown 未知（从未连接或已放弃）
	PeerStateUnknown PeerState = iota
	// PeerStateDialing 拨号中
	PeerStateDialing
	// PeerStateConnected 已连接
	PeerStateConnected
	// PeerStateDisconnected 已断开
	PeerStateDisconnected
	// PeerStateBanned 已封禁
	PeerStateBanned
)

// String 返回状态字符串
func (s PeerState) String() string {
	switch s {
	case PeerStateUnknown:
		return "unknown"
	case PeerStateDialing:
		return "dialing"
	case PeerStateConnected:
		return "connected"
	case PeerStateDisconnected:
		return "disconnected"
	case PeerStateBanned:
		return "banned"
	default:
		return "invalid"
	}
}

// ============================================================================
//                              ConnectivityStatus - 全局连通性
// ============================================================================

// ConnectivityStatus 节点整体连通性
//
// 是已连接节点数相对于配置阈值的纯函数。
type ConnectivityStatus int

const (
	// StatusOffline 离线（已连接数低于降级阈值）
	StatusOffline ConnectivityStatus = iota
	// StatusDegraded 降级（已连接数达到降级阈值但未达到在线阈值）
	StatusDegraded
	// StatusOnline 在线
	StatusOnline
)

// String 返回连通性字符串
func (s ConnectivityStatus) String() string {
	switch s {
	case StatusOffline:
		return "offline"
	case StatusDegraded:
		return "degraded"
	case StatusOnline:
		return "online"
	default:
		return "invalid"
	}
}

// ============================================================================
//                              DisconnectReason - 断开原因
// ============================================================================

// DisconnectReason 断开原因
type DisconnectReason int

const (
	// DisconnectReasonUnknown 未知原因
	DisconnectReasonUnknown DisconnectReason = iota
	// DisconnectReasonGraceful 对端正常关闭
	DisconnectReasonGraceful
	// DisconnectReasonTimeout 空闲或保活超时
	DisconnectReasonTimeout
	// DisconnectReasonError 连接错误
	DisconnectReasonError
	// DisconnectReasonLocal 本地主动关闭
	DisconnectReasonLocal
	// DisconnectReasonSuperseded 被同一节点的新连接取代
	DisconnectReasonSuperseded
	// DisconnectReasonBanned 节点被封禁
	DisconnectReasonBanned
)

// String 返回断开原因字符串
func (r DisconnectReason) String() string {
	switch r {
	case DisconnectReasonGraceful:
		return "graceful"
	case DisconnectReasonTimeout:
		return "timeout"
	case DisconnectReasonError:
		return "error"
	case DisconnectReasonLocal:
		return "local"
	case DisconnectReasonSuperseded:
		return "superseded"
	case DisconnectReasonBanned:
		return "banned"
	default:
		return "unknown"
	}
}
