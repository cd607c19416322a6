// Package notification holds the member's notification list and unread
// counter. State is process local and never persisted.
package notification

import (
	"context"
	"maps"
	"slices"
	"sync"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/fitness-client/pkg/api"
)

const (
	MessageFetchFailed    = "failed to load notifications"
	MessageMarkReadFailed = "failed to mark the notification as read"
)

// API is the subset of the REST surface the store drives.
type API interface {
	Notifications(ctx context.Context) ([]api.Notification, error)
	UnreadNotifications(ctx context.Context) ([]api.Notification, error)
	MarkAsRead(ctx context.Context, notificationID int64) error
}

type State struct {
	Notifications []api.Notification
	UnreadCount   int
	IsLoading     bool
	Error         string
	// Version increases with every local mutation of the list or counter.
	Version uint64
}

// Store applies completions in the order they arrive: when two fetches
// overlap, the one finishing last wins.
type Store struct {
	api API

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

func NewStore(client API) *Store {
	return &Store{
		api:       client,
		listeners: make(map[int]func(State)),
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

// Subscribe registers fn to receive every new state.
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

// FetchNotifications replaces the whole list with the server's.
func (s *Store) FetchNotifications(ctx context.Context) ([]api.Notification, error) {
	s.update(func(st *State) bool {
		st.IsLoading = true
		st.Error = ""
		return false
	})

	list, err := s.api.Notifications(ctx)
	if err != nil {
		s.fail(ctx, err, MessageFetchFailed)
		return nil, err
	}

	s.update(func(st *State) bool {
		st.Notifications = slices.Clone(list)
		st.UnreadCount = countUnread(st.Notifications)
		st.IsLoading = false
		return true
	})

	return list, nil
}

// FetchUnreadCount sets the counter to the number of unread notifications
// the server reports. The list is left as is.
func (s *Store) FetchUnreadCount(ctx context.Context) ([]api.Notification, error) {
	s.update(func(st *State) bool {
		st.IsLoading = true
		st.Error = ""
		return false
	})

	unread, err := s.api.UnreadNotifications(ctx)
	if err != nil {
		s.fail(ctx, err, MessageFetchFailed)
		return nil, err
	}

	s.update(func(st *State) bool {
		st.UnreadCount = len(unread)
		st.IsLoading = false
		return true
	})

	return unread, nil
}

// MarkAsRead acknowledges a notification on the server and, only then,
// patches the local entry. Unknown or already read entries are not touched.
func (s *Store) MarkAsRead(ctx context.Context, notificationID int64) error {
	if err := s.api.MarkAsRead(ctx, notificationID); err != nil {
		s.fail(ctx, err, MessageMarkReadFailed)
		return err
	}

	s.update(func(st *State) bool {
		idx := slices.IndexFunc(st.Notifications, func(n api.Notification) bool {
			return n.NotificationID == notificationID
		})
		if idx < 0 || st.Notifications[idx].CheckNotification {
			return false
		}

		patched := slices.Clone(st.Notifications)
		patched[idx].CheckNotification = true
		st.Notifications = patched
		st.UnreadCount = countUnread(patched)
		return true
	})

	return nil
}

func (s *Store) ClearError() {
	s.update(func(st *State) bool {
		st.Error = ""
		return false
	})
}

// Reset empties the store and drops every subscription.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	clear(s.listeners)
}

func (s *Store) fail(ctx context.Context, err error, message string) {
	s.update(func(st *State) bool {
		st.IsLoading = false
		st.Error = message
		return false
	})
	slogctx.Warn(ctx, "Notification call failed", "error", err)
}

// update applies fn under the lock; fn reports whether it mutated the list
// or the counter.
func (s *Store) update(fn func(*State) bool) {
	s.mu.Lock()
	if fn(&s.state) {
		s.state.Version++
	}
	state := s.snapshot()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, id := range slices.Sorted(maps.Keys(s.listeners)) {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (s *Store) snapshot() State {
	st := s.state
	st.Notifications = slices.Clone(s.state.Notifications)

	return st
}

func countUnread(list []api.Notification) int {
	n := 0
	for _, item := range list {
		if !item.CheckNotification {
			n++
		}
	}

	return n
}
