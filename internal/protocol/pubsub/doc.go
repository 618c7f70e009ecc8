// Package pubsub 实现入站信封的分类与主题扇出
//
// # 数据流
//
//	上游解码器 ──Publish/PipeFrom──▶ 入站缓冲 ──▶ 分类 ──▶ 广播环 ──▶ TopicSubscription
//
// 入站缓冲最多容纳 Capacity 条未分类信封，满时 Publish 阻塞（背压，不丢弃）。
// 分类在单个 goroutine 中按到达顺序进行，无法识别的消息类型由
// UnrecognizedPolicy 计数并按来源节点限速记录日志后丢弃。
//
// 分类后的消息写入固定容量的广播环。发布从不等待订阅者：
// 订阅者落后超过 Capacity 时，下一次读取返回 Missed > 0 的 Delivery，
// 之后按发布顺序继续接收新消息。
//
// # 使用示例
//
//	classifier := pubsub.MapClassifier[Topic]{
//	    msgTypeBlock: TopicBlocks,
//	    msgTypeTx:    TopicTransactions,
//	}
//	pub, err := pubsub.NewPublisher[Topic, *Envelope](pubsub.DefaultConfig(), classifier)
//	if err != nil {
//	    return err
//	}
//	defer pub.Close()
//
//	sub, err := pub.Subscribe(TopicBlocks, "block-sync")
//	if err != nil {
//	    return err
//	}
//	for {
//	    d, err := sub.Next(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    if d.Lagged() {
//	        log.Warn("missed blocks", "count", d.Missed)
//	        continue
//	    }
//	    handle(d.Value)
//	}
package pubsub
