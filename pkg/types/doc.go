// Package types 定义 go-comms 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在连接层、发布订阅层和上层服务之间传递数据。
//
// # 文件组织
//
//   - ids.go          - PeerID（由公钥派生的定长标识）
//   - connectivity.go - PeerState, ConnectivityStatus, DisconnectReason
//   - events.go       - ConnectivityEvent, ConnectionEvent
//   - message.go      - MessageType
//   - delivery.go     - Delivery（流读取结果：数据或滞后计数）
//
// # 设计原则
//
//   - 不可变：事件、载荷创建后不再修改
//   - 可比较：PeerID 为定长数组，可直接作为 map 键
//   - 无行为：仅提供 String 等辅助方法，不包含业务逻辑
package types
