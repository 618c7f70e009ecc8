package pubsub

import (
	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
	"github.com/dep2p/go-comms/pkg/types"
)

// MockEnvelope 测试用信封
type MockEnvelope struct {
	Type  types.MessageType
	From  types.PeerID
	Trace string
	Body  string
}

var _ pkgif.Envelope = (*MockEnvelope)(nil)

// NewMockEnvelope 创建测试信封
func NewMockEnvelope(msgType types.MessageType, body string) *MockEnvelope {
	return &MockEnvelope{
		Type:  msgType,
		From:  types.PeerIDFromPublicKey([]byte("mock-source")),
		Trace: "trace-" + body,
		Body:  body,
	}
}

// MessageType 实现 pkgif.Envelope
func (e *MockEnvelope) MessageType() types.MessageType { return e.Type }

// SourcePeer 实现 pkgif.Envelope
func (e *MockEnvelope) SourcePeer() types.PeerID { return e.From }

// TraceToken 实现 pkgif.Envelope
func (e *MockEnvelope) TraceToken() string { return e.Trace }
