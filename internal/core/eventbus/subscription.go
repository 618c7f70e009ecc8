package eventbus

import (
	"context"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
	"github.com/dep2p/go-comms/pkg/types"
)

// ============================================================================
//                              Subscription 实现
// ============================================================================

// Subscription 订阅，持有独立读游标
type Subscription[T any] struct {
	bus   *Bus[T]
	label string

	mu     sync.Mutex // 串行化同一订阅上的读取
	cursor uint64

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	missed    atomic.Uint64
}

var _ pkgif.Stream[int] = (*Subscription[int])(nil)

// Next 阻塞读取下一条数据或滞后通知
//
// 返回错误时流已终止：ctx 结束、订阅关闭（ErrSubscriptionClosed）
// 或总线关闭且已读完（ErrClosed）。
func (s *Subscription[T]) Next(ctx context.Context) (types.Delivery[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.closed.Load() {
			return types.Delivery[T]{}, ErrSubscriptionClosed
		}

		d, ok, wait, err := s.bus.read(&s.cursor)
		if ok {
			s.recordLag(d)
			return d, nil
		}
		if err != nil {
			return d, err
		}

		select {
		case <-wait:
		case <-s.done:
			return types.Delivery[T]{}, ErrSubscriptionClosed
		case <-ctx.Done():
			return types.Delivery[T]{}, ctx.Err()
		}
	}
}

// TryNext 非阻塞读取
//
// 没有新数据时 ok 为 false。
func (s *Subscription[T]) TryNext() (d types.Delivery[T], ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return d, false, ErrSubscriptionClosed
	}
	d, ok, _, err = s.bus.read(&s.cursor)
	if ok {
		s.recordLag(d)
	}
	return d, ok, err
}

// Close 取消订阅，可重复调用
func (s *Subscription[T]) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.bus.subs.Add(-1)
	})
	return nil
}

// Label 返回诊断标签
func (s *Subscription[T]) Label() string {
	return s.label
}

// Missed 返回累计被跳过的条数
func (s *Subscription[T]) Missed() uint64 {
	return s.missed.Load()
}

func (s *Subscription[T]) recordLag(d types.Delivery[T]) {
	if !d.Lagged() {
		return
	}
	total := s.missed.Add(d.Missed)
	log.Debug("订阅者滞后",
		"bus", s.bus.name,
		"label", s.label,
		"missed", d.Missed,
		"totalMissed", total)
}
