// Package interfaces 定义 go-comms 的公共接口
//
// 分为两类：
//
// # 上游协作者（由外部实现，本层只消费）
//
//   - connmgr.go      - ConnectionManager（拨号、接入、生命周期事件）与 Connection 句柄
//   - envelope.go     - Envelope（已解码的入站协议信封）
//
// # 下游接口（由本层实现，供钱包与基础层服务使用）
//
//   - connectivity.go - Connectivity（连接池查询、拨号、上线等待、受管节点）
//   - stream.go       - Stream（有界广播流，数据或滞后计数）
//
// 接口只依赖 pkg/types，不依赖任何 internal 包。
package interfaces
