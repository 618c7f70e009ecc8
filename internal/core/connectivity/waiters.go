package connectivity

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// onlineWaiter WaitForOnline 的等待者
type onlineWaiter struct {
	id       uint64
	minPeers int
	reply    chan error
	timer    *clock.Timer
}

func (w *onlineWaiter) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// waitTicket reply 为 nil 时 err 即最终结果
type waitTicket struct {
	id    uint64
	reply chan error
	err   error
}

// WaitForOnline 等待已连接数达到 minPeers
//
// minPeers <= 0 时使用 OnlineThreshold。已满足时立即返回；
// 超时返回 *TimeoutError（errors.Is(err, ErrTimeoutExceeded)）；
// timeout <= 0 表示只受 ctx 约束。
func (m *Manager) WaitForOnline(ctx context.Context, minPeers int, timeout time.Duration) error {
	if minPeers <= 0 {
		minPeers = m.cfg.OnlineThreshold
	}

	t, err := callOrRelease(ctx, m,
		func() waitTicket { return m.addWaiter(ctx, minPeers, timeout) },
		func(t waitTicket) {
			if t.reply != nil {
				m.post(func() { m.removeWaiter(t.id) })
			}
		})
	if err != nil {
		return err
	}
	if t.err != nil {
		return t.err
	}
	if t.reply == nil {
		return nil
	}

	select {
	case err := <-t.reply:
		return err
	case <-ctx.Done():
		m.post(func() { m.removeWaiter(t.id) })
		return fmt.Errorf("%w: %w", ErrRequestCancelled, ctx.Err())
	case <-m.done:
		select {
		case err := <-t.reply:
			return err
		default:
			return ErrActorUnavailable
		}
	}
}

func (m *Manager) addWaiter(ctx context.Context, minPeers int, timeout time.Duration) waitTicket {
	if err := ctx.Err(); err != nil {
		return waitTicket{err: fmt.Errorf("%w: %w", ErrRequestCancelled, err)}
	}
	if m.connected >= minPeers {
		return waitTicket{}
	}

	m.nextID++
	w := &onlineWaiter{
		id:       m.nextID,
		minPeers: minPeers,
		reply:    make(chan error, 1),
	}
	if timeout > 0 {
		id := w.id
		w.timer = m.clock.AfterFunc(timeout, func() {
			m.post(func() { m.expireWaiter(id) })
		})
	}
	m.waiters[w.id] = w
	return waitTicket{id: w.id, reply: w.reply}
}

// resolveWaiters 唤醒已满足条件的等待者
func (m *Manager) resolveWaiters() {
	for id, w := range m.waiters {
		if m.connected >= w.minPeers {
			w.stopTimer()
			w.reply <- nil
			delete(m.waiters, id)
		}
	}
}

func (m *Manager) expireWaiter(id uint64) {
	w, ok := m.waiters[id]
	if !ok {
		return
	}
	delete(m.waiters, id)
	w.timer = nil
	w.reply <- &TimeoutError{Connected: m.connected, MinPeers: w.minPeers}
	log.Debug("等待在线超时", "minPeers", w.minPeers, "connected", m.connected)
}

func (m *Manager) removeWaiter(id uint64) {
	if w, ok := m.waiters[id]; ok {
		w.stopTimer()
		delete(m.waiters, id)
	}
}
