package interfaces

import "github.com/dep2p/go-comms/pkg/types"

// Envelope 已解码的入站协议信封
//
// 解码与反序列化由上游完成，本层只读取分类所需的元数据。
type Envelope interface {
	// MessageType 消息类型标签，用于主题分类
	MessageType() types.MessageType

	// SourcePeer 来源节点
	SourcePeer() types.PeerID

	// TraceToken 诊断追踪标记（不透明）
	TraceToken() string
}
