// Package comms 提供节点的连通性与消息扇出核心
//
// comms 把两条互不共享状态的数据流组装成一个节点：
//
//   - 连通性：连接管理器的生命周期事件 → 连通性 actor（连接池、全局连通性、事件流）
//   - 消息：已解码的入站信封 → 分类器 → 主题发布者 → 各主题订阅
//
// 实际的拨号、握手、分帧与信封解码由调用方提供的连接管理器和解码器完成。
//
// # 快速开始
//
//	node, err := comms.New[Topic, *Envelope](connMgr, classifier,
//	    comms.WithPreset("basenode"),
//	    comms.WithEnvelopeSource(decoded),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := node.Start(ctx); err != nil {
//	    return err
//	}
//	defer node.Close()
//
//	// 等待足够的节点在线
//	if err := node.Connectivity().WaitForOnline(ctx, 3, 30*time.Second); err != nil {
//	    return err
//	}
//
//	// 订阅主题
//	sub, err := node.Subscribe(TopicBlocks, "block-sync")
//
// # 日志
//
// 日志级别由 COMMS_LOG_LEVEL 控制，格式为 "子系统=级别,...,默认级别"，
// 例如 COMMS_LOG_LEVEL="core/connectivity=debug,info"。
package comms
