// Package types 定义 go-comms 的基础类型
//
// 本文件定义所有公共错误类型。
package types

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              ID 相关错误
// ============================================================================

// ErrInvalidPeerID 无效的节点 ID
var ErrInvalidPeerID = errors.New("invalid peer ID: must be 32 bytes, base58 encoded")

// ============================================================================
//                              连通性错误
// ============================================================================

var (
	// ErrActorUnavailable actor 未运行或已退出
	ErrActorUnavailable = errors.New("connectivity: actor unavailable")

	// ErrRequestCancelled 请求在 actor 响应前被调用者取消
	ErrRequestCancelled = errors.New("connectivity: request cancelled")

	// ErrDialCancelled 调用者放弃了拨号等待
	ErrDialCancelled = errors.New("connectivity: dial cancelled")

	// ErrDialFailed 拨号重试预算耗尽
	ErrDialFailed = errors.New("connectivity: dial failed")

	// ErrTimeoutExceeded 等待超时
	ErrTimeoutExceeded = errors.New("connectivity: timeout exceeded")

	// ErrPeerBanned 节点已被封禁
	ErrPeerBanned = errors.New("connectivity: peer banned")
)

// DialError 拨号失败
//
// 同时匹配 ErrDialFailed 与最后一次尝试的传输层错误。
type DialError struct {
	Peer     PeerID
	Attempts int
	Err      error
}

// Error 实现 error 接口
func (e *DialError) Error() string {
	return fmt.Sprintf("dial %s failed after %d attempt(s): %v", e.Peer.ShortString(), e.Attempts, e.Err)
}

// Unwrap 返回底层错误
func (e *DialError) Unwrap() []error {
	return []error{ErrDialFailed, e.Err}
}

// TimeoutError WaitForOnline 超时
type TimeoutError struct {
	// Connected 超时时刻的已连接数
	Connected int

	// MinPeers 要求的已连接数
	MinPeers int
}

// Error 实现 error 接口
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %d peer(s), %d connected", e.MinPeers, e.Connected)
}

// Is 匹配 ErrTimeoutExceeded
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeoutExceeded
}

// ============================================================================
//                              发布订阅错误
// ============================================================================

var (
	// ErrUnrecognizedMessage 消息类型无法分类（不会传给订阅者）
	ErrUnrecognizedMessage = errors.New("pubsub: unrecognized message type")

	// ErrPublisherClosed 发布者已关闭
	ErrPublisherClosed = errors.New("pubsub: publisher closed")

	// ErrSubscriptionClosed 订阅已关闭
	ErrSubscriptionClosed = errors.New("pubsub: subscription closed")
)
