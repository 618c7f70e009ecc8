// Package eventbus 实现进程内有界广播
//
// Bus 是一个定长环形缓冲区，所有发布共享一个全序序列号：
//   - 发布不阻塞，不等待任何订阅者
//   - 每个订阅者持有独立读游标，只能看到订阅之后的发布
//   - 订阅者落后超过容量时，游标被强制前移到 写游标−容量，
//     并通过 Delivery.Missed 告知被跳过的条数，随后继续按序读取
//   - 发布端从不断开滞后的订阅者
//
// # 快速开始
//
//	bus, _ := eventbus.New[MyEvent]("my-events", 64)
//
//	sub, _ := bus.Subscribe("consumer-a")
//	defer sub.Close()
//
//	go func() {
//	    for {
//	        d, err := sub.Next(ctx)
//	        if err != nil {
//	            return
//	        }
//	        if d.Lagged() {
//	            // 丢失了 d.Missed 条
//	            continue
//	        }
//	        handle(d.Value)
//	    }
//	}()
//
//	_ = bus.Emit(MyEvent{...})
//
// # 并发安全
//
//   - 写入：sync.RWMutex 写锁，仅覆盖单个槽位
//   - 读取：读锁下移动本订阅者游标，多个订阅者互不阻塞
//   - 等待：每次发布关闭并替换 notify 通道，唤醒所有等待者，无忙等
//
// # 架构定位
//
// 被依赖：core/connectivity（连通性事件）、protocol/pubsub（主题扇出）
package eventbus
