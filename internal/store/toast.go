package store

import (
	"sync"
	"time"

	"pocketspend/internal/core"
	"pocketspend/internal/log"
)

type ToastState struct {
	Message string
	Type    core.ToastType
	Visible bool
}

// ToastStore is a single notification slot. A new toast replaces the current
// one. Expiry timers are never cancelled: when one fires it hides the toast
// only if the message is still the one it was scheduled for.
type ToastStore struct {
	logger   *log.Logger
	timers   Timers
	duration time.Duration

	mu    sync.Mutex
	state ToastState
	subs  listeners[ToastState]
}

func NewToastStore(opts ...Option) *ToastStore {
	o := buildOptions(opts)
	return &ToastStore{
		logger:   o.logger.WithComponent(log.ComponentToast),
		timers:   o.timers,
		duration: o.toastDuration,
	}
}

func (s *ToastStore) State() ToastState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ToastStore) Subscribe(fn func(ToastState)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// ShowToast displays message immediately and schedules its expiry.
func (s *ToastStore) ShowToast(message string, typ core.ToastType) {
	s.set(func(st *ToastState) {
		*st = ToastState{Message: message, Type: typ, Visible: true}
	})
	s.logger.Debug("Toast shown", "message", message, "type", string(typ))

	s.timers.AfterFunc(s.duration, func() {
		s.mu.Lock()
		if s.state.Message != message || !s.state.Visible {
			s.mu.Unlock()
			return
		}
		s.state.Visible = false
		snap := s.state
		s.mu.Unlock()
		s.subs.notify(snap)
	})
}

// HideToast hides the toast but keeps its message and type.
func (s *ToastStore) HideToast() {
	s.set(func(st *ToastState) { st.Visible = false })
}

func (s *ToastStore) set(fn func(*ToastState)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state
	s.mu.Unlock()
	s.subs.notify(snap)
}
