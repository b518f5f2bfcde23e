// Package authctx exposes the current user and session to the rest of a
// process. A Context mirrors an identity.Store: it never caches a session the
// store no longer holds.
package authctx

import (
	"context"
	"sync"

	"github.com/fairdatause/qualify-api/internal/identity"
)

// State is the authentication state of a Context.
type State int

const (
	Initializing State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of a Context at one instant.
type Snapshot struct {
	State   State
	Loading bool
	User    *identity.User
	Session *identity.Session
}

// sessionStore is the part of identity.Store a Context depends on.
type sessionStore interface {
	GetSession(ctx context.Context) *identity.Session
	Current() *identity.Session
	OnChange(h identity.Handler) (unsubscribe func())
	SignInWithMagicLink(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
}

type Context struct {
	store sessionStore

	initOnce  sync.Once
	closeOnce sync.Once
	unsub     func()

	mu       sync.RWMutex
	state    State
	loading  bool
	session  *identity.Session
	watchers []chan Snapshot
	closed   bool
}

// New subscribes to store and returns a Context in the Initializing state.
// Call Init to resolve the first session and Close to release the
// subscription.
func New(store sessionStore) *Context {
	c := &Context{store: store, state: Initializing, loading: true}
	c.unsub = store.OnChange(c.onChange)
	return c
}

// Init resolves the initial session. Only the first call does any work;
// afterwards Loading is false for the rest of the Context's life.
func (c *Context) Init(ctx context.Context) {
	c.initOnce.Do(func() {
		sess := c.store.GetSession(ctx)

		c.mu.Lock()
		// A change event may already have arrived while GetSession was in
		// flight; it is newer than the initial read.
		if c.state == Initializing {
			c.setLocked(sess)
		}
		c.loading = false
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.broadcast(snap)
	})
}

// onChange mirrors the store's current session rather than the event's.
// Reading it under c.mu means the last delivery of overlapping transitions
// always leaves the Context holding the store's final value.
func (c *Context) onChange(_ identity.Event, _ *identity.Session) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.setLocked(c.store.Current())
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.broadcast(snap)
}

func (c *Context) setLocked(sess *identity.Session) {
	c.session = sess
	if sess == nil {
		c.state = Unauthenticated
	} else {
		c.state = Authenticated
	}
}

func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Context) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Context) Session() *identity.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Context) User() *identity.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	u := c.session.User
	return &u
}

func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() Snapshot {
	snap := Snapshot{State: c.state, Loading: c.loading, Session: c.session}
	if c.session != nil {
		u := c.session.User
		snap.User = &u
	}
	return snap
}

// SignInWithMagicLink delegates to the store. The Context becomes
// Authenticated only when the store reports SignedIn.
func (c *Context) SignInWithMagicLink(ctx context.Context, email string) error {
	return c.store.SignInWithMagicLink(ctx, email)
}

func (c *Context) SignOut(ctx context.Context) error {
	return c.store.SignOut(ctx)
}

// Watch returns a channel that receives a Snapshot after every transition.
// Slow receivers miss intermediate snapshots rather than block the store.
// The channel is closed by Close.
func (c *Context) Watch() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch
	}
	c.watchers = append(c.watchers, ch)
	return ch
}

func (c *Context) broadcast(snap Snapshot) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	for _, ch := range c.watchers {
		select {
		case ch <- snap:
		default:
			// Drop the stale value so the newest one is what the receiver sees.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Close unsubscribes from the store and closes every Watch channel. It is
// safe to call more than once; only the first call has an effect.
func (c *Context) Close() {
	c.closeOnce.Do(func() {
		c.unsub()
		c.mu.Lock()
		c.closed = true
		for _, ch := range c.watchers {
			close(ch)
		}
		c.watchers = nil
		c.mu.Unlock()
	})
}

type ctxKey struct{}

// WithContext returns a copy of parent carrying ac.
func WithContext(parent context.Context, ac *Context) context.Context {
	return context.WithValue(parent, ctxKey{}, ac)
}

// FromContext returns the Context installed by WithContext. Calling it on a
// context without one is a programming error and panics.
func FromContext(ctx context.Context) *Context {
	ac, ok := ctx.Value(ctxKey{}).(*Context)
	if !ok || ac == nil {
		panic("authctx: FromContext must be used within an auth context")
	}
	return ac
}
