package pubsub

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dep2p/go-comms/internal/core/eventbus"
	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
	"github.com/dep2p/go-comms/pkg/types"
)

// TopicSubscription 主题订阅
//
// 持有广播环上的独立游标，只返回指定主题的消息。
// 落后时返回的 Missed 是跳过的全部消息数（所有主题），
// 被跳过的消息中属于本主题的条数无法得知。
type TopicSubscription[T comparable, M any] struct {
	id      string
	topic   T
	label   string
	sub     *eventbus.Subscription[TopicPayload[T, M]]
	metrics *Metrics

	closeOnce sync.Once
}

var _ pkgif.Stream[int] = (*TopicSubscription[string, int])(nil)

func newTopicSubscription[T comparable, M any](topic T, label string, sub *eventbus.Subscription[TopicPayload[T, M]], metrics *Metrics) *TopicSubscription[T, M] {
	return &TopicSubscription[T, M]{
		id:      uuid.NewString(),
		topic:   topic,
		label:   label,
		sub:     sub,
		metrics: metrics,
	}
}

// Next 阻塞读取下一条本主题消息或滞后通知
//
// 返回的错误只表示流终止：ctx 结束、订阅关闭或发布者关闭。
func (s *TopicSubscription[T, M]) Next(ctx context.Context) (types.Delivery[M], error) {
	for {
		d, err := s.sub.Next(ctx)
		if err != nil {
			return types.Delivery[M]{}, s.mapErr(err)
		}
		if d.Lagged() {
			s.metrics.Missed.Add(float64(d.Missed))
			log.Debug("主题订阅滞后",
				"topic", s.topic,
				"label", s.label,
				"id", s.id,
				"missed", d.Missed)
			return types.Delivery[M]{Missed: d.Missed}, nil
		}
		if d.Value.Topic != s.topic {
			continue
		}
		return types.Delivery[M]{Value: d.Value.Message}, nil
	}
}

// Close 取消订阅，可重复调用
func (s *TopicSubscription[T, M]) Close() error {
	s.closeOnce.Do(func() {
		_ = s.sub.Close()
		s.metrics.Subscribers.Dec()
	})
	return nil
}

// ID 订阅 ID
func (s *TopicSubscription[T, M]) ID() string { return s.id }

// Topic 订阅的主题
func (s *TopicSubscription[T, M]) Topic() T { return s.topic }

// Label 诊断标签
func (s *TopicSubscription[T, M]) Label() string { return s.label }

// Missed 累计跳过的消息数
func (s *TopicSubscription[T, M]) Missed() uint64 { return s.sub.Missed() }

func (s *TopicSubscription[T, M]) mapErr(err error) error {
	switch {
	case errors.Is(err, eventbus.ErrSubscriptionClosed):
		return ErrSubscriptionClosed
	case errors.Is(err, eventbus.ErrClosed):
		return ErrPublisherClosed
	default:
		return err
	}
}
