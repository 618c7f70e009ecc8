package pubsub

import (
	"errors"

	"github.com/dep2p/go-comms/pkg/types"
)

// 错误定义
var (
	// ErrUnrecognizedMessage 消息类型无法分类（只在内部使用，不会传给订阅者）
	ErrUnrecognizedMessage = types.ErrUnrecognizedMessage

	// ErrPublisherClosed 发布者已关闭
	ErrPublisherClosed = types.ErrPublisherClosed

	// ErrSubscriptionClosed 订阅已关闭
	ErrSubscriptionClosed = types.ErrSubscriptionClosed

	// ErrNilClassifier 缺少分类器
	ErrNilClassifier = errors.New("pubsub: classifier is nil")

	// ErrTopicTypeMismatch 配置的类型列表只能用于以 MessageType 为主题的发布者
	ErrTopicTypeMismatch = errors.New("pubsub: recognized types require MessageType topics")
)
