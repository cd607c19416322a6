package session

import (
	"context"
	"slices"
	"sync"

	slogctx "github.com/veqryn/slog-context"
)

// Navigator performs the hard navigation to the login surface.
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, target string)

func (f NavigatorFunc) Navigate(ctx context.Context, target string) {
	f(ctx, target)
}

// Invalidator runs the session invalidation cascade triggered by an
// unauthorized response: clear the repository, notify listeners, navigate to
// the login surface.
//
// The cascade fires at most once until Rearm is called (after a successful
// login). Concurrent callers block until the running cascade has cleared the
// session, then return without navigating again. Requests issued by the
// navigation itself find the latch released and are no-ops.
type Invalidator struct {
	sessions  Repository
	navigator Navigator
	loginURL  string

	mu        sync.Mutex
	armed     bool
	listeners []func(context.Context)
}

func NewInvalidator(sessions Repository, navigator Navigator, loginURL string) *Invalidator {
	return &Invalidator{
		sessions:  sessions,
		navigator: navigator,
		loginURL:  loginURL,
		armed:     true,
	}
}

// OnInvalidate registers fn to run while the cascade holds the latch.
// Listeners must not call back into the Invalidator.
func (i *Invalidator) OnInvalidate(fn func(ctx context.Context)) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.listeners = append(i.listeners, fn)
}

// Invalidate runs the cascade and reports whether this call fired it.
func (i *Invalidator) Invalidate(ctx context.Context) bool {
	i.mu.Lock()
	if !i.armed {
		i.mu.Unlock()
		return false
	}
	i.armed = false

	if err := i.sessions.Clear(ctx); err != nil {
		slogctx.Error(ctx, "Failed to clear the session during invalidation", "error", err)
	}

	listeners := slices.Clone(i.listeners)
	for _, fn := range listeners {
		fn(ctx)
	}
	i.mu.Unlock()

	slogctx.Info(ctx, "Session invalidated, navigating to login", "target", i.loginURL)
	if i.navigator != nil {
		i.navigator.Navigate(ctx, i.loginURL)
	}

	return true
}

// Rearm allows the next unauthorized response to fire the cascade again.
func (i *Invalidator) Rearm() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.armed = true
}

// Armed reports whether the next unauthorized response fires the cascade.
func (i *Invalidator) Armed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.armed
}

// LoginURL is the target of the navigation.
func (i *Invalidator) LoginURL() string {
	return i.loginURL
}
