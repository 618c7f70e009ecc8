package types

// Delivery 流读取结果
//
// 一次读取要么携带一条数据（Missed == 0），
// 要么只携带滞后计数（Missed > 0，Value 为零值）。
// 滞后表示订阅者落后过多，被跳过的消息不会被重建。
type Delivery[V any] struct {
	// Value 数据
	Value V

	// Missed 被跳过的消息数
	Missed uint64
}

// Lagged 是否为滞后通知
func (d Delivery[V]) Lagged() bool {
	return d.Missed > 0
}
