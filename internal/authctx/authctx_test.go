package authctx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fairdatause/qualify-api/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fake store ---

type fakeStore struct {
	session   *identity.Session
	handlers  []identity.Handler
	unsubbed  int
	signInErr error
	signIns   []string
	getCalls  int
	onGet     func()
}

func (f *fakeStore) GetSession(context.Context) *identity.Session {
	f.getCalls++
	if f.onGet != nil {
		f.onGet()
	}
	return f.session
}

func (f *fakeStore) Current() *identity.Session { return f.session }

func (f *fakeStore) OnChange(h identity.Handler) func() {
	f.handlers = append(f.handlers, h)
	return func() { f.unsubbed++ }
}

func (f *fakeStore) SignInWithMagicLink(_ context.Context, email string) error {
	f.signIns = append(f.signIns, email)
	return f.signInErr
}

func (f *fakeStore) SignOut(context.Context) error {
	f.emit(identity.SignedOut, nil)
	return nil
}

func (f *fakeStore) emit(e identity.Event, s *identity.Session) {
	f.session = s
	for _, h := range f.handlers {
		h(e, s)
	}
}

func sess(email string) *identity.Session {
	return &identity.Session{AccessToken: "tok", User: identity.User{ID: "u1", Email: email}}
}

// --- tests ---

func TestNew_StartsInitializingAndLoading(t *testing.T) {
	ac := New(&fakeStore{})
	assert.Equal(t, Initializing, ac.State())
	assert.True(t, ac.Loading())
	assert.Nil(t, ac.User())
}

func TestInit_NoSession_Unauthenticated(t *testing.T) {
	ac := New(&fakeStore{})
	ac.Init(context.Background())
	assert.Equal(t, Unauthenticated, ac.State())
	assert.False(t, ac.Loading())
}

func TestInit_WithSession_Authenticated(t *testing.T) {
	ac := New(&fakeStore{session: sess("a@b.co")})
	ac.Init(context.Background())
	assert.Equal(t, Authenticated, ac.State())
	assert.False(t, ac.Loading())
	require.NotNil(t, ac.User())
	assert.Equal(t, "a@b.co", ac.User().Email)
}

func TestInit_LoadingFlipsExactlyOnce(t *testing.T) {
	store := &fakeStore{}
	ac := New(store)
	w := ac.Watch()

	ac.Init(context.Background())
	ac.Init(context.Background())

	assert.Equal(t, 1, store.getCalls)
	snap := <-w
	assert.False(t, snap.Loading)

	store.emit(identity.SignedIn, sess("a@b.co"))
	snap = <-w
	assert.False(t, snap.Loading, "loading never returns to true")
	assert.Equal(t, Authenticated, snap.State)
}

func TestInit_EventDuringInitialReadWins(t *testing.T) {
	store := &fakeStore{}
	ac := New(store)
	signedIn := sess("late@b.co")
	store.onGet = func() {
		store.emit(identity.SignedIn, signedIn)
		store.session = nil // the initial read returns the stale value
	}

	ac.Init(context.Background())

	assert.Equal(t, Authenticated, ac.State())
	assert.Same(t, signedIn, ac.Session())
}

func TestOnChange_Transitions(t *testing.T) {
	store := &fakeStore{}
	ac := New(store)
	ac.Init(context.Background())

	store.emit(identity.SignedIn, sess("a@b.co"))
	assert.Equal(t, Authenticated, ac.State())

	refreshed := sess("a@b.co")
	store.emit(identity.TokenRefreshed, refreshed)
	assert.Same(t, refreshed, ac.Session())

	require.NoError(t, ac.SignOut(context.Background()))
	assert.Equal(t, Unauthenticated, ac.State())
	assert.Nil(t, ac.Session())
}

func TestSignInWithMagicLink_DoesNotAuthenticate(t *testing.T) {
	store := &fakeStore{}
	ac := New(store)
	ac.Init(context.Background())

	require.NoError(t, ac.SignInWithMagicLink(context.Background(), "a@b.co"))

	assert.Equal(t, []string{"a@b.co"}, store.signIns)
	assert.Equal(t, Unauthenticated, ac.State())
}

func TestSignInWithMagicLink_ErrorReturnedNotPanicked(t *testing.T) {
	store := &fakeStore{signInErr: errors.New("rate limited")}
	ac := New(store)
	assert.EqualError(t, ac.SignInWithMagicLink(context.Background(), "a@b.co"), "rate limited")
}

func TestClose_UnsubscribesOnceAndClosesWatchers(t *testing.T) {
	store := &fakeStore{}
	ac := New(store)
	w := ac.Watch()

	ac.Close()
	ac.Close()

	assert.Equal(t, 1, store.unsubbed)
	_, open := <-w
	assert.False(t, open)

	late := ac.Watch()
	_, open = <-late
	assert.False(t, open)
}

func TestClose_IgnoresLaterEvents(t *testing.T) {
	store := &fakeStore{}
	ac := New(store)
	ac.Init(context.Background())
	ac.Close()

	store.emit(identity.SignedIn, sess("a@b.co"))
	assert.Equal(t, Unauthenticated, ac.State())
}

func TestWatch_SlowReceiverSeesNewest(t *testing.T) {
	store := &fakeStore{}
	ac := New(store)
	w := ac.Watch()
	ac.Init(context.Background())

	store.emit(identity.SignedIn, sess("a@b.co"))
	store.emit(identity.SignedOut, nil)

	select {
	case snap := <-w:
		assert.Equal(t, Unauthenticated, snap.State)
		assert.Nil(t, snap.User)
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
	}
}

func TestFromContext_PanicsOutsideScope(t *testing.T) {
	assert.PanicsWithValue(t, "authctx: FromContext must be used within an auth context", func() {
		FromContext(context.Background())
	})
}

func TestFromContext_ReturnsInstalled(t *testing.T) {
	ac := New(&fakeStore{})
	ctx := WithContext(context.Background(), ac)
	assert.Same(t, ac, FromContext(ctx))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "initializing", Initializing.String())
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
	assert.Equal(t, "authenticated", Authenticated.String())
}

// --- with a real store ---

type brokenPersister struct{}

func (brokenPersister) Load(context.Context) (*identity.State, error) {
	return nil, errors.New("network unreachable")
}
func (brokenPersister) Save(context.Context, *identity.State) error { return nil }

func TestInit_ProviderFailureFailsOpen(t *testing.T) {
	store := identity.NewStore(nil, identity.Options{Persister: brokenPersister{}})
	ac := New(store)
	defer ac.Close()

	ac.Init(context.Background())

	assert.Equal(t, Unauthenticated, ac.State())
	assert.False(t, ac.Loading())
	assert.Equal(t, 1, store.Subscribers())
	ac.Close()
	assert.Equal(t, 0, store.Subscribers())
}

// stubProvider answers refresh and sign-out; the magic-link calls are unused.
type stubProvider struct {
	refreshed *identity.Session
}

func (stubProvider) SendMagicLink(context.Context, string, string, string) error { return nil }
func (stubProvider) ExchangeCode(context.Context, string, string) (*identity.Session, error) {
	return nil, errors.New("unused")
}
func (p stubProvider) Refresh(context.Context, string) (*identity.Session, error) {
	return p.refreshed, nil
}
func (stubProvider) SignOut(context.Context, string) error { return nil }

type savedState struct{ st *identity.State }

func (p savedState) Load(context.Context) (*identity.State, error) { return p.st, nil }
func (savedState) Save(context.Context, *identity.State) error    { return nil }

func TestOnChange_LateRefreshDoesNotOutliveSignOut(t *testing.T) {
	initial := &identity.Session{AccessToken: "a0", RefreshToken: "r0", User: identity.User{ID: "u1"}}
	refreshed := &identity.Session{AccessToken: "a1", RefreshToken: "r1", User: identity.User{ID: "u1"}}
	store := identity.NewStore(stubProvider{refreshed: refreshed}, identity.Options{
		Persister: savedState{st: &identity.State{Session: initial}},
	})

	// Registered first, so it holds up the refresh delivery before the
	// Context sees it.
	entered, release := make(chan struct{}), make(chan struct{})
	var once sync.Once
	store.OnChange(func(e identity.Event, _ *identity.Session) {
		if e == identity.TokenRefreshed {
			once.Do(func() { close(entered) })
			<-release
		}
	})

	ac := New(store)
	defer ac.Close()
	ac.Init(context.Background())
	require.Equal(t, Authenticated, ac.State())

	done := make(chan error)
	go func() { done <- store.Refresh(context.Background()) }()
	<-entered
	require.NoError(t, store.SignOut(context.Background()))
	close(release)
	require.NoError(t, <-done)

	assert.Nil(t, store.Current())
	assert.Equal(t, Unauthenticated, ac.State())
	assert.Nil(t, ac.Session())
}
