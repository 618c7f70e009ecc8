package connectivity

import (
	"errors"

	"github.com/dep2p/go-comms/pkg/types"
)

// 对外错误定义在 pkg/types，此处保留包内名称
var (
	// ErrActorUnavailable actor 未运行或已退出
	ErrActorUnavailable = types.ErrActorUnavailable

	// ErrRequestCancelled 请求在 actor 响应前被调用者取消
	ErrRequestCancelled = types.ErrRequestCancelled

	// ErrDialCancelled 调用者放弃了拨号等待
	ErrDialCancelled = types.ErrDialCancelled

	// ErrDialFailed 拨号重试预算耗尽
	ErrDialFailed = types.ErrDialFailed

	// ErrTimeoutExceeded 等待超时
	ErrTimeoutExceeded = types.ErrTimeoutExceeded

	// ErrPeerBanned 节点已被封禁
	ErrPeerBanned = types.ErrPeerBanned
)

// 包内错误
var (
	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("connectivity: already started")

	// ErrNilConnectionManager 缺少连接管理器
	ErrNilConnectionManager = errors.New("connectivity: nil connection manager")
)

// DialError 拨号失败，见 types.DialError
type DialError = types.DialError

// TimeoutError WaitForOnline 超时，见 types.TimeoutError
type TimeoutError = types.TimeoutError
