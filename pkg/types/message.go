package types

import "strconv"

// MessageType 消息类型标签
//
// 由上游解码器从信封中解出，用于主题分类。
type MessageType int32

// String 返回类型标签的十进制表示
func (t MessageType) String() string {
	return strconv.FormatInt(int64(t), 10)
}
