package interfaces

import (
	"context"

	"github.com/dep2p/go-comms/pkg/types"
)

// Stream 有界广播流的读取端
//
// 每个 Stream 持有独立的读游标，只能看到订阅之后发布的数据。
// 落后超过缓冲容量时，Next 返回一次 Missed > 0 的 Delivery，
// 随后继续按发布顺序返回新数据。
//
// Next 返回的错误只表示流终止（上下文结束、订阅或发布端关闭）。
type Stream[V any] interface {
	// Next 阻塞直到有新数据、滞后通知或流终止
	Next(ctx context.Context) (types.Delivery[V], error)

	// Close 取消订阅
	Close() error
}
