package notification_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/fitness-client/internal/serviceerr"
	"github.com/openkcm/fitness-client/pkg/api"
	"github.com/openkcm/fitness-client/pkg/api/apitest"
	"github.com/openkcm/fitness-client/pkg/notification"
	sessionmock "github.com/openkcm/fitness-client/pkg/session/mock"
)

type listResult struct {
	list []api.Notification
	err  error
}

// fakeAPI lets a test decide when each call completes.
type fakeAPI struct {
	listCalls chan chan listResult
	markErr   error
	marked    []int64
}

func (f *fakeAPI) Notifications(ctx context.Context) ([]api.Notification, error) {
	done := make(chan listResult)
	f.listCalls <- done
	r := <-done
	return r.list, r.err
}

func (f *fakeAPI) UnreadNotifications(ctx context.Context) ([]api.Notification, error) {
	return f.Notifications(ctx)
}

func (f *fakeAPI) MarkAsRead(_ context.Context, id int64) error {
	f.marked = append(f.marked, id)
	return f.markErr
}

func ids(list []api.Notification) []int64 {
	out := make([]int64, 0, len(list))
	for _, n := range list {
		out = append(out, n.NotificationID)
	}

	return out
}

func assertUnreadInvariant(t *testing.T, st notification.State) {
	t.Helper()

	unread := 0
	for _, n := range st.Notifications {
		if !n.CheckNotification {
			unread++
		}
	}
	assert.Equal(t, unread, st.UnreadCount, "unread count matches the list")
}

func newServerStore(t *testing.T) (*notification.Store, *apitest.Server, int64) {
	t.Helper()

	srv := apitest.NewServer(t)
	user := srv.AddMember("member", "pw", "")
	repo := sessionmock.NewInMemRepository(sessionmock.WithToken(srv.IssueToken(user, time.Hour)))

	return notification.NewStore(srv.APIClient(repo, nil)), srv, user.UserID
}

func TestStore_FetchNotifications(t *testing.T) {
	store, srv, userID := newServerStore(t)
	first := srv.AddNotification(userID, "plan approved", false)
	second := srv.AddNotification(userID, "new follower", true)
	third := srv.AddNotification(userID, "diet feedback", false)

	list, err := store.FetchNotifications(t.Context())
	require.NoError(t, err)

	st := store.State()
	if diff := cmp.Diff([]api.Notification{first, second, third}, st.Notifications); diff != "" {
		t.Errorf("Notifications mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, list, st.Notifications)
	assert.Equal(t, 2, st.UnreadCount)
	assert.False(t, st.IsLoading)
	assert.Equal(t, uint64(1), st.Version)
	assertUnreadInvariant(t, st)
}

func TestStore_FetchUnreadCountSetsCounterOnly(t *testing.T) {
	store, srv, userID := newServerStore(t)
	srv.AddNotification(userID, "one", false)
	srv.AddNotification(userID, "two", false)

	unread, err := store.FetchUnreadCount(t.Context())
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	st := store.State()
	assert.Equal(t, 2, st.UnreadCount)
	assert.Empty(t, st.Notifications)

	// repeated calls assign, they never accumulate
	_, err = store.FetchUnreadCount(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, store.State().UnreadCount)
}

func TestStore_MarkAsReadIsIdempotent(t *testing.T) {
	store, srv, userID := newServerStore(t)
	target := srv.AddNotification(userID, "unread", false)
	srv.AddNotification(userID, "other", false)

	_, err := store.FetchNotifications(t.Context())
	require.NoError(t, err)

	require.NoError(t, store.MarkAsRead(t.Context(), target.NotificationID))
	afterFirst := store.State()
	assert.True(t, afterFirst.Notifications[0].CheckNotification)
	assert.Equal(t, 1, afterFirst.UnreadCount)
	assertUnreadInvariant(t, afterFirst)

	require.NoError(t, store.MarkAsRead(t.Context(), target.NotificationID))
	afterSecond := store.State()
	assert.Equal(t, afterFirst, afterSecond, "second acknowledgement changes nothing")
	assert.Equal(t, afterFirst.Version, afterSecond.Version)
}

func TestStore_MarkAsReadUnknownIDLeavesStateAlone(t *testing.T) {
	fake := &fakeAPI{listCalls: make(chan chan listResult, 1)}
	store := notification.NewStore(fake)

	go func() {
		done := <-fake.listCalls
		done <- listResult{list: []api.Notification{{NotificationID: 1}}}
	}()
	_, err := store.FetchNotifications(t.Context())
	require.NoError(t, err)
	before := store.State()

	require.NoError(t, store.MarkAsRead(t.Context(), 42))
	assert.Equal(t, before, store.State())
	assert.Equal(t, []int64{42}, fake.marked)
}

func TestStore_MarkAsReadFailure(t *testing.T) {
	store, srv, userID := newServerStore(t)
	n := srv.AddNotification(userID, "unread", false)
	_, err := store.FetchNotifications(t.Context())
	require.NoError(t, err)
	before := store.State()

	srv.ForceStatus(apitest.PathMarkAsRead, http.StatusInternalServerError, "")
	err = store.MarkAsRead(t.Context(), n.NotificationID)
	assert.ErrorIs(t, err, serviceerr.ErrServerError)

	st := store.State()
	assert.Equal(t, notification.MessageMarkReadFailed, st.Error)
	assert.Equal(t, before.Notifications, st.Notifications, "no optimistic update")
	assert.Equal(t, before.Version, st.Version)

	store.ClearError()
	assert.Empty(t, store.State().Error)
}

func TestStore_FetchFailure(t *testing.T) {
	store, srv, _ := newServerStore(t)
	srv.ForceStatus(apitest.PathNotifications, http.StatusForbidden, "")

	_, err := store.FetchNotifications(t.Context())
	assert.ErrorIs(t, err, serviceerr.ErrForbidden)

	st := store.State()
	assert.False(t, st.IsLoading)
	assert.Equal(t, notification.MessageFetchFailed, st.Error)
}

// Overlapping fetches are applied in completion order: A starts first and
// finishes last, so A's list wins.
func TestStore_LastCompletionWins(t *testing.T) {
	fake := &fakeAPI{listCalls: make(chan chan listResult)}
	store := notification.NewStore(fake)

	var wg sync.WaitGroup
	fetch := func() {
		wg.Go(func() {
			_, err := store.FetchNotifications(context.Background())
			assert.NoError(t, err)
		})
	}

	fetch()
	completeA := <-fake.listCalls
	fetch()
	completeB := <-fake.listCalls

	completeB <- listResult{list: []api.Notification{{NotificationID: 3}}}
	require.Eventually(t, func() bool {
		return cmp.Equal([]int64{3}, ids(store.State().Notifications))
	}, time.Second, 5*time.Millisecond)

	completeA <- listResult{list: []api.Notification{{NotificationID: 1}, {NotificationID: 2, CheckNotification: true}}}
	wg.Wait()

	st := store.State()
	assert.Equal(t, []int64{1, 2}, ids(st.Notifications))
	assert.Equal(t, 1, st.UnreadCount)
	assertUnreadInvariant(t, st)
}

func TestStore_SubscribeAndReset(t *testing.T) {
	store, srv, userID := newServerStore(t)
	srv.AddNotification(userID, "hello", false)

	var versions []uint64
	unsubscribe := store.Subscribe(func(st notification.State) {
		versions = append(versions, st.Version)
	})

	_, err := store.FetchNotifications(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, versions)

	unsubscribe()
	_, err = store.FetchNotifications(t.Context())
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	store.Reset()
	assert.Equal(t, notification.State{}, store.State())
}
