package pubsub

import (
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
	"github.com/dep2p/go-comms/pkg/types"
)

// ============================================================================
//                              未识别消息策略
// ============================================================================

// UnrecognizedPolicy 处理无法分类的信封
//
// 丢弃并计数，按来源节点限速记录日志。目前不对发送方做任何惩罚，
// 发送未知类型的节点不会被封禁或降分。
type UnrecognizedPolicy struct {
	peers   *lru.Cache[types.PeerID, *peerRecord]
	every   rate.Limit
	burst   int
	metrics *Metrics
	total   atomic.Uint64
}

// peerRecord 单个来源节点的记录
type peerRecord struct {
	limiter    *rate.Limiter
	dropped    atomic.Uint64
	suppressed atomic.Uint64
}

// NewUnrecognizedPolicy 创建策略
func NewUnrecognizedPolicy(interval time.Duration, burst, cacheSize int, metrics *Metrics) (*UnrecognizedPolicy, error) {
	peers, err := lru.New[types.PeerID, *peerRecord](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("pubsub: peer cache: %w", err)
	}
	if metrics == nil {
		metrics = NewMetrics(nil, "")
	}
	return &UnrecognizedPolicy{
		peers:   peers,
		every:   rate.Every(interval),
		burst:   burst,
		metrics: metrics,
	}, nil
}

// Handle 处理一条未识别的信封
func (p *UnrecognizedPolicy) Handle(env pkgif.Envelope) {
	p.total.Add(1)
	p.metrics.Unrecognized.Inc()

	peer := env.SourcePeer()
	rec := p.record(peer)
	dropped := rec.dropped.Add(1)

	if !rec.limiter.Allow() {
		rec.suppressed.Add(1)
		return
	}
	log.Warn("丢弃未识别的消息",
		"peerID", peer.ShortString(),
		"trace", env.TraceToken(),
		"dropped", dropped,
		"suppressed", rec.suppressed.Swap(0),
		"err", fmt.Errorf("%w: type %s", ErrUnrecognizedMessage, env.MessageType()))
}

// Dropped 返回来自指定节点的丢弃数（只统计仍在缓存中的节点）
func (p *UnrecognizedPolicy) Dropped(peer types.PeerID) uint64 {
	if rec, ok := p.peers.Peek(peer); ok {
		return rec.dropped.Load()
	}
	return 0
}

// Total 返回累计丢弃数
func (p *UnrecognizedPolicy) Total() uint64 {
	return p.total.Load()
}

func (p *UnrecognizedPolicy) record(peer types.PeerID) *peerRecord {
	if rec, ok := p.peers.Get(peer); ok {
		return rec
	}
	rec := &peerRecord{limiter: rate.NewLimiter(p.every, p.burst)}
	if prev, found, _ := p.peers.PeekOrAdd(peer, rec); found {
		return prev
	}
	return rec
}
