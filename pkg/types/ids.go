package types

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// ============================================================================
//                              PeerID - 节点标识
// ============================================================================

// PeerIDLen PeerID 字节长度
const PeerIDLen = 32

// PeerID 节点唯一标识符
//
// 由节点公钥确定性派生（公钥的 SHA-256），与公钥一一对应。
// 本层只使用其相等性与哈希，不赋予其他语义。
//
// 外部表示格式：
//   - String(): Base58 编码
//   - ShortString(): Base58 前 8 个字符（日志用）
type PeerID [PeerIDLen]byte

// EmptyPeerID 空节点 ID
var EmptyPeerID PeerID

// PeerIDFromPublicKey 从公钥派生 PeerID
func PeerIDFromPublicKey(pubKey []byte) PeerID {
	return PeerID(sha256.Sum256(pubKey))
}

// PeerIDFromBytes 从字节切片创建 PeerID
func PeerIDFromBytes(b []byte) (PeerID, error) {
	if len(b) != PeerIDLen {
		return EmptyPeerID, ErrInvalidPeerID
	}
	var id PeerID
	copy(id[:], b)
	return id, nil
}

// ParsePeerID 从 Base58 字符串解析 PeerID
func ParsePeerID(s string) (PeerID, error) {
	if s == "" {
		return EmptyPeerID, ErrInvalidPeerID
	}
	b, err := base58.Decode(s)
	if err != nil {
		return EmptyPeerID, ErrInvalidPeerID
	}
	return PeerIDFromBytes(b)
}

// String 返回 Base58 字符串表示
func (id PeerID) String() string {
	if id.IsEmpty() {
		return ""
	}
	return base58.Encode(id[:])
}

// ShortString 返回短字符串表示，用于日志
func (id PeerID) ShortString() string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// Bytes 返回字节切片副本
func (id PeerID) Bytes() []byte {
	b := make([]byte, PeerIDLen)
	copy(b, id[:])
	return b
}

// IsEmpty 检查是否为空
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}
