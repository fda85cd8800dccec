package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketspend/internal/core"
	"pocketspend/internal/persist"
	"pocketspend/internal/remote/memory"
)

func aliceRemote() *memory.Remote {
	return memory.New([]core.User{
		{ID: "1", Username: "alice", Email: "alice@example.com", Name: "Alice"},
		{ID: "2", Username: "bob", Email: "bob@example.com", Name: "Bob"},
	})
}

func TestAuthStore_LoginSuccess(t *testing.T) {
	s := NewAuthStore(aliceRemote(), nil)

	s.Login(context.Background(), "alice", "secret1")

	st := s.State()
	assert.True(t, st.IsAuthenticated)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Error)
	require.NotNil(t, st.User)
	assert.Equal(t, "1", st.User.ID)
}

func TestAuthStore_LoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  string
	}{
		{"short password", "alice", "ab", "Invalid password"},
		{"unknown user", "ghost", "secret1", "User not found"},
		{"username match is case-sensitive", "Alice", "secret1", "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAuthStore(aliceRemote(), nil)
			s.Login(context.Background(), tt.username, tt.password)

			st := s.State()
			assert.False(t, st.IsAuthenticated)
			assert.Nil(t, st.User)
			assert.False(t, st.IsLoading)
			assert.Equal(t, tt.wantErr, st.Error)
		})
	}
}

func TestAuthStore_PasswordValueIsNeverCompared(t *testing.T) {
	s := NewAuthStore(aliceRemote(), nil)
	s.Login(context.Background(), "bob", "anything-long-enough")
	assert.True(t, s.State().IsAuthenticated)
}

func TestAuthStore_TransportFailure(t *testing.T) {
	r := aliceRemote()
	r.FailWith(errors.New("Network Error"))
	s := NewAuthStore(r, nil)

	s.Login(context.Background(), "alice", "secret1")

	st := s.State()
	assert.Equal(t, "Network Error", st.Error)
	assert.False(t, st.IsAuthenticated)
	assert.False(t, st.IsLoading)
}

func TestAuthStore_TransportFailureWithoutMessage(t *testing.T) {
	r := aliceRemote()
	r.FailWith(errors.New(""))
	s := NewAuthStore(r, nil)

	s.Login(context.Background(), "alice", "secret1")
	assert.Equal(t, MsgLoginFailed, s.State().Error)
}

type blockingUsers struct {
	started chan struct{}
	release chan struct{}
	users   []core.User
}

func (b *blockingUsers) ListUsers(ctx context.Context) ([]core.User, error) {
	close(b.started)
	<-b.release
	return b.users, nil
}

func TestAuthStore_LoadingDuringLookup(t *testing.T) {
	lister := &blockingUsers{
		started: make(chan struct{}),
		release: make(chan struct{}),
		users:   []core.User{{ID: "1", Username: "alice"}},
	}
	s := NewAuthStore(lister, nil)

	done := make(chan struct{})
	go func() {
		s.Login(context.Background(), "alice", "secret1")
		close(done)
	}()

	<-lister.started
	assert.True(t, s.State().IsLoading)
	close(lister.release)
	<-done
	assert.False(t, s.State().IsLoading)
	assert.True(t, s.State().IsAuthenticated)
}

func TestAuthStore_LogoutKeepsError(t *testing.T) {
	s := NewAuthStore(aliceRemote(), nil)
	s.Login(context.Background(), "alice", "secret1")
	s.Login(context.Background(), "alice", "ab")
	require.Equal(t, "Invalid password", s.State().Error)

	s.Logout()

	st := s.State()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)
	assert.Equal(t, "Invalid password", st.Error)

	s.ClearError()
	assert.Empty(t, s.State().Error)
}

func TestAuthStore_PersistAndRehydrate(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()

	s := NewAuthStore(aliceRemote(), storage)
	s.Login(ctx, "alice", "secret1")
	s.Flush()

	raw, ok, err := storage.GetItem(ctx, persist.AuthKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t,
		`{"state":{"user":{"id":"1","username":"alice","email":"alice@example.com","name":"Alice"},"isAuthenticated":true},"version":0}`,
		string(raw))

	restored := NewAuthStore(aliceRemote(), storage)
	require.NoError(t, restored.Rehydrate(ctx))
	st := restored.State()
	assert.True(t, st.IsAuthenticated)
	require.NotNil(t, st.User)
	assert.Equal(t, "alice", st.User.Username)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Error)

	restored.Logout()
	restored.Flush()
	again := NewAuthStore(aliceRemote(), storage)
	require.NoError(t, again.Rehydrate(ctx))
	assert.False(t, again.State().IsAuthenticated)
}

func TestAuthStore_RehydrateRestoresConsistentFlag(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()
	require.NoError(t, storage.SetItem(ctx, persist.AuthKey,
		[]byte(`{"state":{"user":null,"isAuthenticated":true},"version":0}`)))

	s := NewAuthStore(aliceRemote(), storage)
	require.NoError(t, s.Rehydrate(ctx))
	assert.False(t, s.State().IsAuthenticated)
}

func TestAuthStore_RehydrateCorruptRecord(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()
	require.NoError(t, storage.SetItem(ctx, persist.AuthKey, []byte(`{broken`)))

	s := NewAuthStore(aliceRemote(), storage)
	assert.Error(t, s.Rehydrate(ctx))
	assert.False(t, s.State().IsAuthenticated)
}

func TestAuthStore_Subscribe(t *testing.T) {
	s := NewAuthStore(aliceRemote(), nil)
	var seen []AuthState
	unsubscribe := s.Subscribe(func(st AuthState) { seen = append(seen, st) })

	s.Login(context.Background(), "alice", "secret1")
	require.Len(t, seen, 2)
	assert.True(t, seen[0].IsLoading)
	assert.True(t, seen[1].IsAuthenticated)

	unsubscribe()
	unsubscribe()
	s.Logout()
	assert.Len(t, seen, 2)
}

func TestAuthStore_StateIsACopy(t *testing.T) {
	s := NewAuthStore(aliceRemote(), nil)
	s.Login(context.Background(), "alice", "secret1")

	st := s.State()
	st.User.Username = "mallory"
	assert.Equal(t, "alice", s.State().User.Username)
}
