package auth

import (
	"context"
	"sync"
)

// Service is the narrow identity boundary the annotation layer depends on.
// It is injected explicitly so identity is substitutable in tests; there is
// no ambient global session.
type Service interface {
	// Identity returns the stable, privacy-preserving user identity, or
	// ok=false while unresolved / after logout.
	Identity() (string, bool)

	// WaitUntilResolved blocks until the identity is known or ctx is done.
	// A resolved-but-anonymous session yields an empty identity and nil error.
	WaitUntilResolved(ctx context.Context) (string, error)

	// Subscribe registers fn to run on every identity change. The returned
	// function unsubscribes.
	Subscribe(fn func(identity string)) (unsubscribe func())
}

// StaticSession is a Service whose identity is fixed at construction.
// This is the common case for server-side request handling, where the
// identity has already been established by token verification.
type StaticSession struct {
	identity string
}

func NewStaticSession(identity string) *StaticSession {
	return &StaticSession{identity: identity}
}

func (s *StaticSession) Identity() (string, bool) {
	return s.identity, s.identity != ""
}

func (s *StaticSession) WaitUntilResolved(ctx context.Context) (string, error) {
	return s.identity, nil
}

func (s *StaticSession) Subscribe(fn func(string)) func() {
	return func() {}
}

// DeferredSession resolves asynchronously: consumers constructed before the
// identity is known block in WaitUntilResolved until Resolve or Logout runs.
type DeferredSession struct {
	mu       sync.Mutex
	identity string
	resolved bool
	done     chan struct{}
	subs     map[int]func(string)
	nextSub  int
}

func NewDeferredSession() *DeferredSession {
	return &DeferredSession{
		done: make(chan struct{}),
		subs: make(map[int]func(string)),
	}
}

func (s *DeferredSession) Identity() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.resolved && s.identity != ""
}

func (s *DeferredSession) WaitUntilResolved(ctx context.Context) (string, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-done:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, nil
}

// Resolve sets the identity and wakes all waiters.
func (s *DeferredSession) Resolve(identity string) {
	s.mu.Lock()
	s.identity = identity
	wasResolved := s.resolved
	s.resolved = true
	if !wasResolved {
		close(s.done)
	}
	subs := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(identity)
	}
}

// Logout clears the identity. Waiters that arrive afterwards block until the
// next Resolve.
func (s *DeferredSession) Logout() {
	s.mu.Lock()
	s.identity = ""
	if s.resolved {
		s.resolved = false
		s.done = make(chan struct{})
	}
	subs := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn("")
	}
}

func (s *DeferredSession) Subscribe(fn func(string)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
