package store

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Timers schedules one-shot callbacks.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realTimers struct{}

// RealTimers schedules callbacks on the runtime timer heap.
func RealTimers() Timers { return realTimers{} }

func (realTimers) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualTimers is a Timers whose clock only moves when Advance is called.
// Callbacks run synchronously inside Advance, in deadline order.
type ManualTimers struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	owner    *ManualTimers
	deadline time.Duration
	seq      int
	fn       func()
	stopped  bool
}

func NewManualTimers() *ManualTimers {
	return &ManualTimers{}
}

func (m *ManualTimers) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{owner: m, deadline: m.now + d, seq: m.seq, fn: f}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that falls due.
func (m *ManualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	for {
		next := m.popDueLocked(target)
		if next == nil {
			break
		}
		m.now = next.deadline
		m.mu.Unlock()
		next.fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

// Elapsed reports how far the clock has moved.
func (m *ManualTimers) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending reports how many timers are still waiting to fire.
func (m *ManualTimers) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *ManualTimers) popDueLocked(target time.Duration) *manualTimer {
	if len(m.pending) == 0 {
		return nil
	}
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].deadline != m.pending[j].deadline {
			return m.pending[i].deadline < m.pending[j].deadline
		}
		return m.pending[i].seq < m.pending[j].seq
	})
	first := m.pending[0]
	if first.deadline > target {
		return nil
	}
	m.pending = m.pending[1:]
	return first
}

func (t *manualTimer) Stop() bool {
	m := t.owner
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.pending {
		if p == t {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			t.stopped = true
			return true
		}
	}
	return false
}
