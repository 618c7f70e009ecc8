package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-comms/internal/util/logger"
	"github.com/dep2p/go-comms/pkg/types"
)

var log = logger.Logger("core/eventbus")

// ============================================================================
//                              Bus 实现
// ============================================================================

// Bus 有界广播总线
type Bus[T any] struct {
	name     string
	capacity uint64

	mu     sync.RWMutex
	ring   []T
	head   uint64        // 下一个写入的序列号
	notify chan struct{} // 每次发布后关闭并替换
	closed bool

	subs    atomic.Int64
	emitted atomic.Uint64
}

// New 创建广播总线
//
// name 仅用于日志；capacity 为每个订阅者可落后的最大条数。
func New[T any](name string, capacity int) (*Bus[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Bus[T]{
		name:     name,
		capacity: uint64(capacity),
		ring:     make([]T, capacity),
		notify:   make(chan struct{}),
	}, nil
}

// Emit 发布一个值
//
// 不阻塞：缓冲区满时覆盖最旧的槽位。
func (b *Bus[T]) Emit(value T) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}

	b.ring[b.head%b.capacity] = value
	b.head++
	wake := b.notify
	b.notify = make(chan struct{})
	b.mu.Unlock()

	close(wake)
	b.emitted.Add(1)
	return nil
}

// Subscribe 创建订阅，游标从当前写位置开始（不回放历史）
func (b *Bus[T]) Subscribe(label string) (*Subscription[T], error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	b.subs.Add(1)
	return &Subscription[T]{
		bus:    b,
		label:  label,
		cursor: b.head,
		done:   make(chan struct{}),
	}, nil
}

// Close 关闭总线
//
// 订阅者读完剩余数据后收到 ErrClosed。
func (b *Bus[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	wake := b.notify
	b.mu.Unlock()

	close(wake)
	log.Debug("广播总线已关闭", "bus", b.name, "emitted", b.emitted.Load())
	return nil
}

// Capacity 返回容量
func (b *Bus[T]) Capacity() int {
	return int(b.capacity)
}

// Head 返回下一个写入的序列号（即已发布总数）
func (b *Bus[T]) Head() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.head
}

// Subscribers 返回活跃订阅数
func (b *Bus[T]) Subscribers() int {
	return int(b.subs.Load())
}

// ============================================================================
//                              内部方法
// ============================================================================

// read 从 cursor 处读取一条
//
// ok 为 false 时，若 err 为 nil 则返回需要等待的 notify 通道。
func (b *Bus[T]) read(cursor *uint64) (d types.Delivery[T], ok bool, wait <-chan struct{}, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if *cursor < b.head {
		var oldest uint64
		if b.head > b.capacity {
			oldest = b.head - b.capacity
		}
		if *cursor < oldest {
			d.Missed = oldest - *cursor
			*cursor = oldest
			return d, true, nil, nil
		}

		d.Value = b.ring[*cursor%b.capacity]
		*cursor++
		return d, true, nil, nil
	}

	if b.closed {
		return d, false, nil, ErrClosed
	}
	return d, false, b.notify, nil
}
