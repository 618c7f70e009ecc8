package pubsub

import (
	"fmt"

	"github.com/dep2p/go-comms/pkg/types"
)

// Classifier 把消息类型映射到主题
type Classifier[T comparable] interface {
	// Classify 返回主题；无法识别时 ok 为 false
	Classify(msgType types.MessageType) (topic T, ok bool)
}

// ClassifierFunc 函数形式的分类器
type ClassifierFunc[T comparable] func(types.MessageType) (T, bool)

// Classify 实现 Classifier
func (f ClassifierFunc[T]) Classify(msgType types.MessageType) (T, bool) {
	return f(msgType)
}

// MapClassifier 查表分类器
type MapClassifier[T comparable] map[types.MessageType]T

// Classify 实现 Classifier
func (m MapClassifier[T]) Classify(msgType types.MessageType) (T, bool) {
	topic, ok := m[msgType]
	return topic, ok
}

// TagClassifier 以消息类型本身作为主题，只接受已知类型
type TagClassifier map[types.MessageType]struct{}

// NewTagClassifier 创建标签分类器
func NewTagClassifier(known ...types.MessageType) TagClassifier {
	c := make(TagClassifier, len(known))
	for _, t := range known {
		c[t] = struct{}{}
	}
	return c
}

// Classify 实现 Classifier
func (c TagClassifier) Classify(msgType types.MessageType) (types.MessageType, bool) {
	_, ok := c[msgType]
	return msgType, ok
}

// ClassifierFromTypes 用配置的消息类型列表构造 TagClassifier
//
// 列表为空返回 ErrNilClassifier；TagClassifier 以消息类型为主题，
// 因此 T 必须是 types.MessageType。
func ClassifierFromTypes[T comparable](recognized []int32) (Classifier[T], error) {
	if len(recognized) == 0 {
		return nil, ErrNilClassifier
	}
	known := make([]types.MessageType, len(recognized))
	for i, t := range recognized {
		known[i] = types.MessageType(t)
	}
	c, ok := any(NewTagClassifier(known...)).(Classifier[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: topic type %T", ErrTopicTypeMismatch, zero)
	}
	return c, nil
}
