package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// 基础功能测试
// ============================================================================

func newTestBus(t *testing.T, capacity int) *Bus[int] {
	t.Helper()
	bus, err := New[int]("test", capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestNew_InvalidCapacity(t *testing.T) {
	_, err := New[int]("test", 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New[int]("test", -1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestBus_EmitAndReceive(t *testing.T) {
	bus := newTestBus(t, 8)

	sub, err := bus.Subscribe("reader")
	require.NoError(t, err)
	defer sub.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, bus.Emit(i))
	}

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		d, err := sub.Next(ctx)
		require.NoError(t, err)
		assert.False(t, d.Lagged())
		assert.Equal(t, i, d.Value)
	}
	assert.Equal(t, uint64(3), bus.Head())
}

// TestBus_NoReplay 订阅只能看到订阅之后的发布
func TestBus_NoReplay(t *testing.T) {
	bus := newTestBus(t, 8)

	require.NoError(t, bus.Emit(1))

	sub, err := bus.Subscribe("late")
	require.NoError(t, err)
	defer sub.Close()

	_, ok, err := sub.TryNext()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, bus.Emit(2))

	d, err := sub.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Value)
}

// TestBus_LagAccounting 容量 C，发布 C+k 条不读取，下一次读取报告丢失 k 条
func TestBus_LagAccounting(t *testing.T) {
	const capacity, extra = 4, 3
	bus := newTestBus(t, capacity)

	sub, err := bus.Subscribe("slow")
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < capacity+extra; i++ {
		require.NoError(t, bus.Emit(i))
	}

	ctx := context.Background()
	d, err := sub.Next(ctx)
	require.NoError(t, err)
	require.True(t, d.Lagged())
	assert.Equal(t, uint64(extra), d.Missed)

	// 之后按序收到最近 capacity 条
	for i := extra; i < capacity+extra; i++ {
		d, err := sub.Next(ctx)
		require.NoError(t, err)
		assert.False(t, d.Lagged())
		assert.Equal(t, i, d.Value)
	}

	// 继续接收新数据
	require.NoError(t, bus.Emit(100))
	d, err = sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, d.Value)
	assert.Equal(t, uint64(extra), sub.Missed())
}

func TestBus_EmitNeverBlocksOnSlowSubscriber(t *testing.T) {
	bus := newTestBus(t, 2)

	sub, err := bus.Subscribe("idle")
	require.NoError(t, err)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			_ = bus.Emit(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a subscriber that never reads")
	}
}

// ============================================================================
// 关闭语义测试
// ============================================================================

func TestBus_CloseDrainsThenErrors(t *testing.T) {
	bus, err := New[int]("test", 4)
	require.NoError(t, err)

	sub, err := bus.Subscribe("reader")
	require.NoError(t, err)

	require.NoError(t, bus.Emit(7))
	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Emit(8), ErrClosed)

	d, err := sub.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, d.Value)

	_, err = sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = bus.Subscribe("after-close")
	assert.ErrorIs(t, err, ErrClosed)

	// 重复关闭无害
	assert.NoError(t, bus.Close())
}

func TestBus_CloseWakesWaiters(t *testing.T) {
	bus, err := New[int]("test", 4)
	require.NoError(t, err)

	sub, err := bus.Subscribe("waiter")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := sub.Next(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, bus.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}
}
