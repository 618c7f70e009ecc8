package pubsub

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-comms/pkg/types"
)

const (
	typeA       types.MessageType = 1
	typeB       types.MessageType = 2
	typeUnknown types.MessageType = 99
)

// ============================================================================
//                              测试辅助
// ============================================================================

func testClassifier() MapClassifier[string] {
	return MapClassifier[string]{typeA: "A", typeB: "B"}
}

func newTestPublisher(t *testing.T, capacity int) *Publisher[string, *MockEnvelope] {
	t.Helper()
	p, err := NewPublisher[string, *MockEnvelope](DefaultConfig().WithCapacity(capacity), testClassifier())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// publishAll 发布并等待全部完成分类
func publishAll(t *testing.T, p *Publisher[string, *MockEnvelope], msgs ...*MockEnvelope) {
	t.Helper()
	before := p.Stats()
	for _, m := range msgs {
		require.NoError(t, p.Publish(context.Background(), m))
	}
	want := before.Published + before.Unrecognized + uint64(len(msgs))
	require.Eventually(t, func() bool {
		s := p.Stats()
		return s.Published+s.Unrecognized == want
	}, 2*time.Second, 2*time.Millisecond)
}

func next(t *testing.T, sub *TopicSubscription[string, *MockEnvelope]) types.Delivery[*MockEnvelope] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d, err := sub.Next(ctx)
	require.NoError(t, err)
	return d
}

func assertEmpty(t *testing.T, sub *TopicSubscription[string, *MockEnvelope]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "unexpected delivery %+v", d)
}

// ============================================================================
//                              构造
// ============================================================================

func TestNewPublisher_Validation(t *testing.T) {
	_, err := NewPublisher[string, *MockEnvelope](DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilClassifier)

	_, err = NewPublisher[string, *MockEnvelope](DefaultConfig().WithCapacity(0), testClassifier())
	assert.Error(t, err)
}

// ============================================================================
//                              订阅语义
// ============================================================================

func TestTopicIsolation(t *testing.T) {
	p := newTestPublisher(t, 16)

	subA, err := p.Subscribe("A", "a")
	require.NoError(t, err)
	defer subA.Close()
	subB, err := p.Subscribe("B", "b")
	require.NoError(t, err)
	defer subB.Close()

	publishAll(t, p,
		NewMockEnvelope(typeA, "a1"),
		NewMockEnvelope(typeB, "b1"),
		NewMockEnvelope(typeA, "a2"),
	)

	assert.Equal(t, "a1", next(t, subA).Value.Body)
	assert.Equal(t, "a2", next(t, subA).Value.Body)
	assertEmpty(t, subA)

	assert.Equal(t, "b1", next(t, subB).Value.Body)
	assertEmpty(t, subB)
}

func TestNoReplay(t *testing.T) {
	p := newTestPublisher(t, 16)

	publishAll(t, p, NewMockEnvelope(typeA, "m1"))

	sub, err := p.Subscribe("A", "late")
	require.NoError(t, err)
	defer sub.Close()

	publishAll(t, p, NewMockEnvelope(typeA, "m2"))

	assert.Equal(t, "m2", next(t, sub).Value.Body)
	assertEmpty(t, sub)
}

func TestInterleavedScenario(t *testing.T) {
	p := newTestPublisher(t, 8)

	subA, err := p.Subscribe("A", "a")
	require.NoError(t, err)
	defer subA.Close()

	topics := []types.MessageType{typeA, typeB, typeA, typeB, typeA, typeB, typeA}
	var msgs []*MockEnvelope
	for i, typ := range topics {
		msgs = append(msgs, NewMockEnvelope(typ, fmt.Sprintf("#%d", i+1)))
	}
	publishAll(t, p, msgs...)

	subB, err := p.Subscribe("B", "b-late")
	require.NoError(t, err)
	defer subB.Close()

	var got []string
	for i := 0; i < 4; i++ {
		d := next(t, subA)
		require.False(t, d.Lagged())
		got = append(got, d.Value.Body)
	}
	assert.Equal(t, []string{"#1", "#3", "#5", "#7"}, got)
	assertEmpty(t, subA)
	assertEmpty(t, subB)
}

func TestLagAccounting(t *testing.T) {
	const capacity, extra = 4, 3
	p := newTestPublisher(t, capacity)

	sub, err := p.Subscribe("A", "slow")
	require.NoError(t, err)
	defer sub.Close()

	var msgs []*MockEnvelope
	for i := 1; i <= capacity+extra; i++ {
		msgs = append(msgs, NewMockEnvelope(typeA, fmt.Sprintf("m%d", i)))
	}
	publishAll(t, p, msgs...)

	d := next(t, sub)
	require.True(t, d.Lagged())
	assert.Equal(t, uint64(extra), d.Missed)
	assert.Nil(t, d.Value)

	for i := extra + 1; i <= capacity+extra; i++ {
		d := next(t, sub)
		require.False(t, d.Lagged())
		assert.Equal(t, fmt.Sprintf("m%d", i), d.Value.Body)
	}
	assert.Equal(t, uint64(extra), sub.Missed())

	// 滞后后仍能继续接收新消息
	publishAll(t, p, NewMockEnvelope(typeA, "fresh"))
	assert.Equal(t, "fresh", next(t, sub).Value.Body)
}

func TestLagDoesNotAffectOtherSubscribers(t *testing.T) {
	p := newTestPublisher(t, 4)

	slow, err := p.Subscribe("A", "slow")
	require.NoError(t, err)
	defer slow.Close()
	fast, err := p.Subscribe("A", "fast")
	require.NoError(t, err)
	defer fast.Close()

	for i := 1; i <= 8; i++ {
		publishAll(t, p, NewMockEnvelope(typeA, fmt.Sprintf("m%d", i)))
		d := next(t, fast)
		require.False(t, d.Lagged())
		assert.Equal(t, fmt.Sprintf("m%d", i), d.Value.Body)
	}

	d := next(t, slow)
	assert.Equal(t, uint64(4), d.Missed)
}

func TestOrderingAcrossSubscribers(t *testing.T) {
	const n = 200
	p := newTestPublisher(t, 1000)

	const subscribers = 5
	subs := make([]*TopicSubscription[string, *MockEnvelope], subscribers)
	for i := range subs {
		sub, err := p.Subscribe("A", fmt.Sprintf("s%d", i))
		require.NoError(t, err)
		defer sub.Close()
		subs[i] = sub
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *TopicSubscription[string, *MockEnvelope]) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for i := 0; i < n; i++ {
				d, err := sub.Next(ctx)
				if !assert.NoError(t, err) {
					return
				}
				assert.False(t, d.Lagged())
				assert.Equal(t, fmt.Sprintf("m%d", i), d.Value.Body)
			}
		}(sub)
	}

	for i := 0; i < n; i++ {
		if i%3 == 0 {
			require.NoError(t, p.Publish(context.Background(), NewMockEnvelope(typeB, "noise")))
		}
		require.NoError(t, p.Publish(context.Background(), NewMockEnvelope(typeA, fmt.Sprintf("m%d", i))))
	}
	wg.Wait()
}

// ============================================================================
//                              入站与分类
// ============================================================================

func TestPublish_Backpressure(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	classifier := ClassifierFunc[string](func(typ types.MessageType) (string, bool) {
		once.Do(func() {
			close(entered)
			<-release
		})
		return "A", true
	})

	p, err := NewPublisher[string, *MockEnvelope](DefaultConfig().WithCapacity(2), classifier)
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, NewMockEnvelope(typeA, "1")))
	<-entered

	require.NoError(t, p.Publish(ctx, NewMockEnvelope(typeA, "2")))
	require.NoError(t, p.Publish(ctx, NewMockEnvelope(typeA, "3")))
	assert.Equal(t, 2, p.Stats().Queued)

	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Publish(shortCtx, NewMockEnvelope(typeA, "4")), context.DeadlineExceeded)

	close(release)
	require.NoError(t, p.Publish(ctx, NewMockEnvelope(typeA, "4")))
	require.Eventually(t, func() bool { return p.Stats().Published == 4 }, 2*time.Second, 2*time.Millisecond)
}

func TestUnrecognizedDropped(t *testing.T) {
	p := newTestPublisher(t, 16)

	sub, err := p.Subscribe("A", "a")
	require.NoError(t, err)
	defer sub.Close()

	bad := NewMockEnvelope(typeUnknown, "bad")
	publishAll(t, p, bad, NewMockEnvelope(typeA, "good"))

	d := next(t, sub)
	assert.Equal(t, "good", d.Value.Body)
	assertEmpty(t, sub)

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Published)
	assert.Equal(t, uint64(1), stats.Unrecognized)
	assert.Equal(t, uint64(1), p.Policy().Dropped(bad.SourcePeer()))
}

func TestPipeFrom(t *testing.T) {
	p := newTestPublisher(t, 16)

	sub, err := p.Subscribe("B", "pipe")
	require.NoError(t, err)
	defer sub.Close()

	src := make(chan *MockEnvelope, 3)
	src <- NewMockEnvelope(typeB, "x")
	src <- NewMockEnvelope(typeA, "y")
	src <- NewMockEnvelope(typeB, "z")
	close(src)

	require.NoError(t, p.PipeFrom(context.Background(), src))
	assert.Equal(t, "x", next(t, sub).Value.Body)
	assert.Equal(t, "z", next(t, sub).Value.Body)
}

func TestPipeFrom_Cancelled(t *testing.T) {
	p := newTestPublisher(t, 16)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.PipeFrom(ctx, make(chan *MockEnvelope)) }()

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

// ============================================================================
//                              关闭
// ============================================================================

func TestPublisher_Close(t *testing.T) {
	p := newTestPublisher(t, 16)

	sub, err := p.Subscribe("A", "a")
	require.NoError(t, err)

	publishAll(t, p, NewMockEnvelope(typeA, "last"))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	// 关闭前发布的消息仍可读取
	assert.Equal(t, "last", next(t, sub).Value.Body)

	_, err = sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrPublisherClosed)

	assert.ErrorIs(t, p.Publish(context.Background(), NewMockEnvelope(typeA, "x")), ErrPublisherClosed)
	_, err = p.Subscribe("A", "late")
	assert.ErrorIs(t, err, ErrPublisherClosed)
}

func TestPublisher_CloseKeepsAcceptedMessages(t *testing.T) {
	p := newTestPublisher(t, 10000)

	sub, err := p.Subscribe("A", "a")
	require.NoError(t, err)
	defer sub.Close()

	var accepted atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				err := p.Publish(context.Background(), NewMockEnvelope(typeA, "x"))
				if err != nil {
					assert.ErrorIs(t, err, ErrPublisherClosed)
					return
				}
				accepted.Add(1)
			}
		}()
	}

	time.Sleep(time.Millisecond)
	require.NoError(t, p.Close())
	wg.Wait()

	var received int64
	for {
		d, err := sub.Next(context.Background())
		if err != nil {
			require.ErrorIs(t, err, ErrPublisherClosed)
			break
		}
		require.False(t, d.Lagged())
		received++
	}
	assert.Equal(t, accepted.Load(), received)
}

func TestSubscription_Close(t *testing.T) {
	p := newTestPublisher(t, 16)

	sub, err := p.Subscribe("A", "a")
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, "A", sub.Topic())
	assert.Equal(t, "a", sub.Label())
	assert.Equal(t, 1, p.Stats().Subscribers)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, p.Stats().Subscribers)

	_, err = sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestSubscription_UniqueIDs(t *testing.T) {
	p := newTestPublisher(t, 16)

	s1, err := p.Subscribe("A", "same")
	require.NoError(t, err)
	s2, err := p.Subscribe("A", "same")
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID(), s2.ID())
}
