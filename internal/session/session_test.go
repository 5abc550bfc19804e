package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peacock/internal/client"
	"peacock/internal/store"
	"peacock/internal/types"
)

func newTestManager(t *testing.T) (*Manager, store.CredentialStore, store.CredentialStore) {
	t.Helper()
	dir := t.TempDir()
	durable := store.NewFileCredentialStore(filepath.Join(dir, "token"))
	scoped := store.NewFileSessionStore(filepath.Join(dir, "session.json"), time.Hour)
	return NewManager(durable, scoped), durable, scoped
}

// ctxStore fails every call made with a finished context, as network-backed
// stores do.
type ctxStore struct {
	store.CredentialStore
}

func (s ctxStore) Save(ctx context.Context, credential string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.CredentialStore.Save(ctx, credential)
}

func (s ctxStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.CredentialStore.Clear(ctx)
}

type fakeAuthenticator struct {
	token      string
	err        error
	logins     int
	registered []types.Registration
}

func (f *fakeAuthenticator) Login(_ context.Context, _ types.Credentials) (string, error) {
	f.logins++
	return f.token, f.err
}

func (f *fakeAuthenticator) Register(_ context.Context, req types.Registration) (*client.RegisterResponse, error) {
	f.registered = append(f.registered, req)
	return &client.RegisterResponse{}, f.err
}

func TestRestoreWithoutCredentialRoutesToLogin(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.Equal(t, RouteLogin, m.Restore(context.Background()))
	assert.Equal(t, Anonymous, m.State())
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestRestorePrefersSessionScopedCredential(t *testing.T) {
	ctx := context.Background()
	m, durable, scoped := newTestManager(t)
	require.NoError(t, durable.Save(ctx, "durable-token"))
	require.NoError(t, scoped.Save(ctx, "session-token"))

	assert.Equal(t, RouteNotes, m.Restore(ctx))
	credential, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "session-token", credential)
}

func TestRestoreFallsBackToDurableAndReseeds(t *testing.T) {
	ctx := context.Background()
	m, durable, scoped := newTestManager(t)
	require.NoError(t, durable.Save(ctx, "durable-token"))

	assert.Equal(t, RouteNotes, m.Restore(ctx))
	credential, ok, err := scoped.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "durable-token", credential)
}

func TestEstablishPersistsBothStores(t *testing.T) {
	ctx := context.Background()
	m, durable, scoped := newTestManager(t)
	require.NoError(t, m.Establish(ctx, "abc"))
	assert.Equal(t, Authenticated, m.State())

	for _, s := range []store.CredentialStore{durable, scoped} {
		credential, ok, err := s.Load(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "abc", credential)
	}
}

func TestEstablishRejectsEmptyCredential(t *testing.T) {
	m, _, _ := newTestManager(t)
	err := m.Establish(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, Anonymous, m.State())
}

func TestInvalidateClearsStoresAndEmitsOnce(t *testing.T) {
	ctx := context.Background()
	m, durable, scoped := newTestManager(t)
	require.NoError(t, m.Establish(ctx, "abc"))

	var events []Event
	m.Subscribe(func(e Event) { events = append(events, e) })

	assert.True(t, m.Invalidate(ctx, ReasonRejected))
	assert.False(t, m.Invalidate(ctx, ReasonRejected))

	require.Len(t, events, 1)
	assert.Equal(t, RouteLogin, events[0].Route)
	assert.Equal(t, expiredMessage, events[0].Message)
	assert.Equal(t, Anonymous, m.State())
	for _, s := range []store.CredentialStore{durable, scoped} {
		_, ok, err := s.Load(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestInvalidateWithCancelledContextStillClearsStores(t *testing.T) {
	dir := t.TempDir()
	durable := ctxStore{store.NewFileCredentialStore(filepath.Join(dir, "token"))}
	scoped := ctxStore{store.NewFileSessionStore(filepath.Join(dir, "session.json"), time.Hour)}
	m := NewManager(durable, scoped)
	require.NoError(t, m.Establish(context.Background(), "token"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, m.Invalidate(ctx, ReasonRejected))

	fresh := NewManager(durable, scoped)
	assert.Equal(t, RouteLogin, fresh.Restore(context.Background()))
	_, ok, err := durable.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	require.NoError(t, m.Establish(ctx, "abc"))
	calls := 0
	cancel := m.Subscribe(func(Event) { calls++ })
	cancel()
	m.Logout(ctx)
	assert.Zero(t, calls)
}

func TestConcurrentAuthFailuresInvalidateExactlyOnce(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	require.NoError(t, m.Establish(ctx, "abc"))

	var events atomic.Int32
	m.Subscribe(func(Event) { events.Add(1) })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"jwt expired"}`))
	}))
	defer server.Close()

	c := client.New(server.URL, client.WithCredentials(m))
	c.OnAuthFailure(m)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ListNotes(ctx)
			assert.ErrorIs(t, err, client.ErrAuth)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), events.Load())
	assert.Equal(t, Anonymous, m.State())
}

func TestStaleAuthFailureDoesNotEndFreshSession(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	require.NoError(t, m.Establish(ctx, "new-token"))

	m.HandleAuthFailure(ctx, "old-token", &client.Error{Category: client.CategoryAuth})
	assert.Equal(t, Authenticated, m.State())

	m.HandleAuthFailure(ctx, "new-token", &client.Error{Category: client.CategoryAuth})
	assert.Equal(t, Anonymous, m.State())
}

func TestLoginEstablishesSession(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	auth := &fakeAuthenticator{token: "jwt"}

	require.NoError(t, m.Login(ctx, auth, "a@b.c", "pw"))
	credential, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "jwt", credential)
}

func TestLoginValidatesBeforeCallingServer(t *testing.T) {
	m, _, _ := newTestManager(t)
	auth := &fakeAuthenticator{token: "jwt"}
	err := m.Login(context.Background(), auth, "a@b.c", "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, auth.logins)
}

func TestLoginFailureLeavesSessionAnonymous(t *testing.T) {
	m, _, _ := newTestManager(t)
	auth := &fakeAuthenticator{err: &client.Error{Category: client.CategoryClient, StatusCode: 401, Message: "Invalid credentials"}}
	err := m.Login(context.Background(), auth, "a@b.c", "pw")
	assert.ErrorIs(t, err, client.ErrClient)
	assert.Equal(t, Anonymous, m.State())
}

func TestRegisterDoesNotEstablishSession(t *testing.T) {
	m, _, _ := newTestManager(t)
	auth := &fakeAuthenticator{}
	err := m.Register(context.Background(), auth, types.Registration{Name: "Ann", Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	require.Len(t, auth.registered, 1)
	assert.Equal(t, Anonymous, m.State())
}

func TestLogoutEmitsLoggedOutMessage(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	require.NoError(t, m.Establish(ctx, "abc"))
	var got Event
	m.Subscribe(func(e Event) { got = e })
	assert.True(t, m.Logout(ctx))
	assert.Equal(t, ReasonLogout, got.Reason)
	assert.Equal(t, loggedOutMessage, got.Message)
}
