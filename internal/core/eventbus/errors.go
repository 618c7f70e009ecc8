package eventbus

import "errors"

var (
	// ErrClosed 总线已关闭
	ErrClosed = errors.New("eventbus: closed")

	// ErrSubscriptionClosed 订阅已关闭
	ErrSubscriptionClosed = errors.New("eventbus: subscription closed")

	// ErrInvalidCapacity 容量无效
	ErrInvalidCapacity = errors.New("eventbus: capacity must be positive")
)
