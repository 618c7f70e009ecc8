// Package connectivity 实现连通性 actor
//
// Manager 是连接池的唯一所有者。所有公开方法都把请求投递到 actor 邮箱，
// 由单个 goroutine 串行处理，池状态不需要加锁。
//
// # 职责
//
//   - 维护每个节点的连接句柄（同一节点至多一个活跃句柄）
//   - 按需拨号：同一节点的并发请求合并为一次拨号，结果分发给所有等待者
//   - 受管节点断开后按指数退避重拨
//   - 根据已连接数推导全局连通性（Offline/Degraded/Online），变化时广播
//   - 封禁节点（吸收态）
//
// # 使用示例
//
//	mgr, err := connectivity.NewManager(connectivity.DefaultConfig(), connMgr)
//	if err != nil {
//	    return err
//	}
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Close()
//
//	conn, err := mgr.DialPeer(ctx, peerID)
//
// # 失败语义
//
// actor 退出（Close 或内部 panic 被恢复）后，所有调用返回 ErrActorUnavailable。
// 调用者通过 ctx 放弃 DialPeer 时只影响自身；最后一个等待者离开时，
// 调用者发起的拨号被取消，受管节点的内部重拨不受影响。
package connectivity
