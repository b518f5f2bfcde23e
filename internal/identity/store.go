package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fairdatause/qualify-api/internal/domain"
	"github.com/fairdatause/qualify-api/internal/logger"
	pkgtoken "github.com/fairdatause/qualify-api/internal/pkg/token"
	"go.uber.org/zap"
)

// Handler observes session transitions. It is called synchronously, after
// the store's state has changed and outside the store's lock. When
// transitions overlap, a handler may run after a newer one has already been
// applied; read Current for the value the store holds now.
type Handler func(event Event, session *Session)

// ErrEmailRequired is returned by SignInWithMagicLink for a blank address.
var ErrEmailRequired = domain.NewValidationError("Please enter your email address")

// ErrNoPendingSignIn is returned by CompleteMagicLink when no link was requested.
var ErrNoPendingSignIn = domain.NewValidationError("No sign-in is pending. Request a new magic link.")

type Options struct {
	RedirectTo string
	Persister  Persister
	Now        func() time.Time
}

// Store owns the current session. At most one session is current at a time
// and every subscriber observes the same value.
type Store struct {
	provider   Provider
	persister  Persister
	redirectTo string
	now        func() time.Time

	restoreOnce sync.Once
	saveMu      sync.Mutex

	mu       sync.Mutex
	current  *Session
	verifier string
	handlers map[int]Handler
	nextID   int
}

func NewStore(provider Provider, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		provider:   provider,
		persister:  opts.Persister,
		redirectTo: opts.RedirectTo,
		now:        now,
		handlers:   make(map[int]Handler),
	}
}

// GetSession returns the current session or nil. It never fails: restore and
// refresh errors are logged and surface as a nil session.
func (s *Store) GetSession(ctx context.Context) *Session {
	s.restore(ctx)

	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()

	if cur == nil || !cur.Expired(s.now()) {
		return cur
	}
	if cur.RefreshToken != "" {
		if err := s.Refresh(ctx); err == nil {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.current
		}
	}
	s.transitionFrom(ctx, cur, SignedOut, nil)
	return s.Current()
}

// Current returns the session the store holds right now, without restoring
// or refreshing it.
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnChange registers h and returns a function that removes it. The returned
// function is safe to call more than once.
func (s *Store) OnChange(h Handler) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers reports how many handlers are registered.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// SignInWithMagicLink asks the provider to email a sign-in link. A blank
// address fails without contacting the provider. The session does not change
// until the link is completed.
func (s *Store) SignInWithMagicLink(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	s.restore(ctx)
	verifier, err := pkgtoken.NewCodeVerifier()
	if err != nil {
		return err
	}
	if err := s.provider.SendMagicLink(ctx, email, s.redirectTo, pkgtoken.CodeChallenge(verifier)); err != nil {
		return providerError(err)
	}

	s.mu.Lock()
	s.verifier = verifier
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

// CompleteMagicLink exchanges the auth code carried by a clicked link for a
// session and notifies subscribers with SignedIn.
func (s *Store) CompleteMagicLink(ctx context.Context, authCode string) error {
	s.restore(ctx)

	s.mu.Lock()
	verifier := s.verifier
	s.mu.Unlock()
	if verifier == "" {
		return ErrNoPendingSignIn
	}

	sess, err := s.provider.ExchangeCode(ctx, authCode, verifier)
	if err != nil {
		return providerError(err)
	}
	s.mu.Lock()
	s.verifier = ""
	s.mu.Unlock()
	s.transition(ctx, SignedIn, sess)
	return nil
}

// Refresh trades the refresh token for a new session. If the session was
// replaced or ended while the provider call was in flight, the new tokens are
// discarded.
func (s *Store) Refresh(ctx context.Context) error {
	s.restore(ctx)

	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur == nil || cur.RefreshToken == "" {
		return errors.New("no session to refresh")
	}

	sess, err := s.provider.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		logger.LogWarn("session refresh failed", zap.String("user_id", cur.User.ID), zap.Error(err))
		return providerError(err)
	}
	if !s.transitionFrom(ctx, cur, TokenRefreshed, sess) {
		logger.LogInfo("session changed during refresh; discarding refreshed tokens",
			zap.String("user_id", cur.User.ID))
	}
	return nil
}

// SignOut ends the session at the provider. On success the store holds no
// session and every subscriber has been notified before SignOut returns.
func (s *Store) SignOut(ctx context.Context) error {
	s.restore(ctx)

	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur == nil {
		return nil
	}

	if err := s.provider.SignOut(ctx, cur.AccessToken); err != nil {
		return providerError(err)
	}
	s.transition(ctx, SignedOut, nil)
	return nil
}

// transition installs sess as current, persists, then notifies subscribers
// in registration order.
func (s *Store) transition(ctx context.Context, event Event, sess *Session) {
	s.mu.Lock()
	s.apply(ctx, event, sess)
}

// transitionFrom is transition guarded by the session it was computed from.
// It reports false, changing nothing, when current is no longer from.
func (s *Store) transitionFrom(ctx context.Context, from *Session, event Event, sess *Session) bool {
	s.mu.Lock()
	if s.current != from {
		s.mu.Unlock()
		return false
	}
	s.apply(ctx, event, sess)
	return true
}

// apply must be called with s.mu held; it releases it before notifying.
func (s *Store) apply(ctx context.Context, event Event, sess *Session) {
	s.current = sess
	ids := make([]int, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, s.handlers[id])
	}
	s.mu.Unlock()

	s.persist(ctx)
	for _, h := range handlers {
		h(event, sess)
	}
}

func (s *Store) restore(ctx context.Context) {
	if s.persister == nil {
		return
	}
	s.restoreOnce.Do(func() {
		st, err := s.persister.Load(ctx)
		if err != nil {
			logger.LogWarn("could not restore session", zap.Error(err))
			return
		}
		if st == nil {
			return
		}
		s.mu.Lock()
		if s.current == nil {
			s.current = st.Session
		}
		if s.verifier == "" {
			s.verifier = st.CodeVerifier
		}
		s.mu.Unlock()
	})
}

func (s *Store) stateLocked() *State {
	return &State{Session: s.current, CodeVerifier: s.verifier}
}

// persist saves whatever state is current when it runs, so the last of
// several overlapping saves writes the final value.
func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	st := s.stateLocked()
	s.mu.Unlock()
	s.save(ctx, st)
}

func (s *Store) save(ctx context.Context, st *State) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, st); err != nil {
		logger.LogWarn("could not persist session", zap.Error(err))
	}
}

func providerError(err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Message: fmt.Sprintf("identity provider: %v", err)}
}
