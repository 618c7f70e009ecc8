package comms

import "errors"

// 公共错误定义
var (
	// ErrNotStarted 节点未启动
	ErrNotStarted = errors.New("node not started")

	// ErrAlreadyStarted 节点已启动
	ErrAlreadyStarted = errors.New("node already started")

	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = errors.New("node closed")

	// ErrSourceTypeMismatch 信封源的元素类型与节点不一致
	ErrSourceTypeMismatch = errors.New("envelope source type mismatch")
)
