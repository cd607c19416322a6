// Package auth holds the authentication state of the client and the
// transitions between anonymous and authenticated.
package auth

import (
	"context"
	"maps"
	"slices"
	"sync"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/fitness-client/internal/serviceerr"
	"github.com/openkcm/fitness-client/pkg/api"
	"github.com/openkcm/fitness-client/pkg/session"
)

type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusError          Status = "error"
)

const (
	MessageSignupFailed  = "failed to sign up"
	MessageLoginFailed   = "failed to log in"
	MessageProfileFailed = "failed to load the profile"
)

// API is the subset of the REST surface the store drives.
type API interface {
	Signup(ctx context.Context, id, password string, role session.Role) (api.Envelope, error)
	Login(ctx context.Context, id, password string) (string, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (session.User, error)
}

type State struct {
	Status    Status
	User      *session.User
	IsLoading bool
	Error     string
}

func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

type Store struct {
	api         API
	sessions    session.Repository
	invalidator *session.Invalidator

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

// NewStore seeds the state from the repository: a stored token means
// authenticated. When invalidator is set, the store goes anonymous whenever
// the invalidation cascade fires.
func NewStore(ctx context.Context, client API, sessions session.Repository, invalidator *session.Invalidator) (*Store, error) {
	s := &Store{
		api:         client,
		sessions:    sessions,
		invalidator: invalidator,
		listeners:   make(map[int]func(State)),
	}

	state, err := s.seed(ctx)
	if err != nil {
		return nil, err
	}
	s.state = state

	if invalidator != nil {
		invalidator.OnInvalidate(s.onInvalidate)
	}

	return s, nil
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Subscribe registers fn to receive every new state. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.listeners, id)
	}
}

// Signup registers a member without touching the session.
func (s *Store) Signup(ctx context.Context, id, password string, role session.Role) error {
	previous := s.State().Status
	s.update(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})

	_, err := s.api.Signup(ctx, id, password, role)
	if err != nil {
		s.update(func(st *State) {
			st.IsLoading = false
			st.Error = serviceerr.MessageOr(err, MessageSignupFailed)
			st.Status = previous
		})
		return err
	}

	s.update(func(st *State) {
		st.IsLoading = false
		st.Status = previous
	})
	slogctx.Info(ctx, "Signed up", "id", id)

	return nil
}

// Login exchanges credentials for a token and loads the profile with it. A
// failing profile fetch fails the whole login and leaves no token behind.
func (s *Store) Login(ctx context.Context, id, password string) error {
	s.update(func(st *State) {
		st.Status = StatusAuthenticating
		st.IsLoading = true
		st.Error = ""
	})

	token, err := s.api.Login(ctx, id, password)
	if err != nil {
		return s.failLogin(ctx, err, MessageLoginFailed, false)
	}

	if err := s.sessions.StoreToken(ctx, token); err != nil {
		return s.failLogin(ctx, err, MessageLoginFailed, true)
	}

	user, err := s.api.Profile(ctx)
	if err != nil {
		return s.failLogin(ctx, err, MessageProfileFailed, true)
	}

	if err := s.sessions.StoreUser(ctx, user); err != nil {
		return s.failLogin(ctx, err, MessageProfileFailed, true)
	}

	if s.invalidator != nil {
		s.invalidator.Rearm()
	}

	s.update(func(st *State) {
		st.Status = StatusAuthenticated
		st.User = &user
		st.IsLoading = false
	})
	slogctx.Info(ctx, "Logged in", "userId", user.UserID, "role", user.Role)

	return nil
}

func (s *Store) failLogin(ctx context.Context, err error, fallback string, rollback bool) error {
	if rollback {
		if clearErr := s.sessions.Clear(ctx); clearErr != nil {
			slogctx.Error(ctx, "Failed to roll back the session after a failed login", "error", clearErr)
		}
	}

	s.update(func(st *State) {
		st.Status = StatusError
		st.User = nil
		st.IsLoading = false
		st.Error = serviceerr.MessageOr(err, fallback)
	})
	slogctx.Warn(ctx, "Login failed", "error", err)

	return err
}

// Logout notifies the backend and clears the local session whatever the
// outcome of that call.
func (s *Store) Logout(ctx context.Context) (err error) {
	s.update(func(st *State) { st.IsLoading = true })

	defer func() {
		if clearErr := s.sessions.Clear(ctx); clearErr != nil {
			slogctx.Error(ctx, "Failed to clear the session on logout", "error", clearErr)
		}

		s.update(func(st *State) {
			st.Status = StatusAnonymous
			st.User = nil
			st.IsLoading = false
			st.Error = ""
		})
	}()

	if err = s.api.Logout(ctx); err != nil {
		slogctx.Warn(ctx, "Logout request failed, session cleared locally", "error", err)
	}

	return err
}

// FetchUserInfo refreshes the cached profile. A failure never clears the
// session here; unauthorized responses are handled by the cascade.
func (s *Store) FetchUserInfo(ctx context.Context) (session.User, error) {
	s.update(func(st *State) { st.IsLoading = true })

	user, err := s.api.Profile(ctx)
	if err != nil {
		s.update(func(st *State) { st.IsLoading = false })
		return session.User{}, err
	}

	if err := s.sessions.StoreUser(ctx, user); err != nil {
		slogctx.Error(ctx, "Failed to store the profile", "error", err)
	}

	s.update(func(st *State) {
		st.User = &user
		st.IsLoading = false
	})

	return user, nil
}

// ClearError resets only the error message.
func (s *Store) ClearError() {
	s.update(func(st *State) { st.Error = "" })
}

// Reset drops every subscription and re-seeds the state from the repository.
func (s *Store) Reset(ctx context.Context) error {
	state, err := s.seed(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = state
	clear(s.listeners)
	s.mu.Unlock()

	return nil
}

func (s *Store) onInvalidate(ctx context.Context) {
	s.update(func(st *State) {
		st.Status = StatusAnonymous
		st.User = nil
		st.IsLoading = false
	})
	slogctx.Info(ctx, "Session invalidated")
}

func (s *Store) seed(ctx context.Context) (State, error) {
	stored, err := session.Load(ctx, s.sessions)
	if err != nil {
		return State{}, err
	}

	if stored.Token == "" {
		return State{Status: StatusAnonymous}, nil
	}

	return State{Status: StatusAuthenticated, User: stored.User}, nil
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	state := s.state
	listeners := make([]func(State), 0, len(s.listeners))
	for _, id := range slices.Sorted(maps.Keys(s.listeners)) {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
