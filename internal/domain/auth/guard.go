package auth

import (
	"sync"
	"sync/atomic"
)

// Guard admits one submission at a time.
type Guard interface {
	// TryAcquire returns a release func and true when no submission holds the guard.
	TryAcquire() (release func(), ok bool)
}

type flagGuard struct {
	busy atomic.Bool
}

func (g *flagGuard) TryAcquire() (func(), bool) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, false
	}
	return func() { g.busy.Store(false) }, true
}

// SessionGuard hands out guards keyed by session and form, so form instances rebuilt per
// request still share one in-flight flag.
type SessionGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewSessionGuard creates an empty SessionGuard.
func NewSessionGuard() *SessionGuard {
	return &SessionGuard{held: make(map[string]struct{})}
}

// For returns the guard of key.
func (g *SessionGuard) For(key string) Guard {
	return keyedGuard{parent: g, key: key}
}

// InFlight returns how many keys are currently held.
func (g *SessionGuard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}

type keyedGuard struct {
	parent *SessionGuard
	key    string
}

func (k keyedGuard) TryAcquire() (func(), bool) {
	g := k.parent
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[k.key]; busy {
		return nil, false
	}
	g.held[k.key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, k.key)
			g.mu.Unlock()
		})
	}, true
}
