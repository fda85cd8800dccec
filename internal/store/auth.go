package store

import (
	"context"
	"sync"

	"pocketspend/internal/core"
	"pocketspend/internal/log"
	"pocketspend/internal/persist"
	"pocketspend/internal/remote"
)

// MsgLoginFailed is shown when a login failure carries no message of its own.
const MsgLoginFailed = "An error occurred during login"

// AuthState is the session. IsAuthenticated always equals User != nil.
type AuthState struct {
	User            *core.User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// authRecord is the persisted part of AuthState.
type authRecord struct {
	User            *core.User `json:"user"`
	IsAuthenticated bool       `json:"isAuthenticated"`
}

// AuthStore tracks who is signed in.
type AuthStore struct {
	users  remote.UserLister
	logger *log.Logger

	mu    sync.Mutex
	state AuthState
	seq   uint64

	persister *persister[authRecord]
	subs      listeners[AuthState]
}

// NewAuthStore builds an anonymous session. A nil storage disables
// persistence.
func NewAuthStore(users remote.UserLister, storage persist.Storage, opts ...Option) *AuthStore {
	o := buildOptions(opts)
	logger := o.logger.WithComponent(log.ComponentAuth)
	return &AuthStore{
		users:     users,
		logger:    logger,
		persister: newPersister[authRecord](storage, persist.AuthKey, logger),
	}
}

// State returns a snapshot of the session.
func (s *AuthStore) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive the state after every change.
func (s *AuthStore) Subscribe(fn func(AuthState)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// Login looks the username up in the remote user collection. The password
// is only checked for length. Failures are reported through State().Error.
func (s *AuthStore) Login(ctx context.Context, username, password string) {
	s.update(func(st *AuthState) {
		st.IsLoading = true
		st.Error = ""
	})

	users, err := s.users.ListUsers(ctx)

	var failure string
	s.update(func(st *AuthState) {
		st.IsLoading = false
		if err != nil {
			failure = core.ErrorMessage(err, MsgLoginFailed)
		} else if user := findUser(users, username); user == nil {
			failure = core.ErrUserNotFound.Error()
		} else if !core.ValidatePassword(password) {
			failure = core.ErrInvalidPassword.Error()
		} else {
			st.User = user
		}
		st.Error = failure
	})

	if failure != "" {
		s.logger.WarnContext(ctx, "Login failed",
			log.FieldUsername, username,
			log.FieldOperation, log.OpLogin,
			log.FieldError, failure)
		return
	}
	s.logger.InfoContext(ctx, "User logged in",
		log.FieldUsername, username,
		log.FieldOperation, log.OpLogin)
}

// Logout clears the session. Any recorded error is kept.
func (s *AuthStore) Logout() {
	s.update(func(st *AuthState) {
		st.User = nil
		st.IsAuthenticated = false
	})
	s.logger.Info("User logged out", log.FieldOperation, log.OpLogout)
}

func (s *AuthStore) ClearError() {
	s.update(func(st *AuthState) { st.Error = "" })
}

// Rehydrate restores the persisted session. A corrupt record is reported
// and the store stays anonymous.
func (s *AuthStore) Rehydrate(ctx context.Context) error {
	rec, ok, err := s.persister.load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to rehydrate session",
			log.FieldOperation, log.OpRehydrate, log.FieldError, err)
		return err
	}
	if !ok {
		return nil
	}

	s.mu.Lock()
	s.state.User = cloneUser(rec.User)
	s.state.IsAuthenticated = rec.User != nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subs.notify(snap)
	s.logger.DebugContext(ctx, "Session rehydrated",
		log.FieldOperation, log.OpRehydrate,
		"authenticated", snap.IsAuthenticated)
	return nil
}

// Flush waits for pending persistence writes.
func (s *AuthStore) Flush() {
	s.persister.flush()
}

func (s *AuthStore) update(fn func(*AuthState)) {
	s.mu.Lock()
	fn(&s.state)
	s.state.IsAuthenticated = s.state.User != nil
	s.seq++
	seq := s.seq
	rec := authRecord{User: cloneUser(s.state.User), IsAuthenticated: s.state.IsAuthenticated}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persister.save(seq, rec)
	s.subs.notify(snap)
}

func (s *AuthStore) snapshotLocked() AuthState {
	st := s.state
	st.User = cloneUser(st.User)
	return st
}

func findUser(users []core.User, username string) *core.User {
	for i := range users {
		if users[i].Username == username {
			u := users[i]
			return &u
		}
	}
	return nil
}

func cloneUser(u *core.User) *core.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
