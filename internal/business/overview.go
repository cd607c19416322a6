package business

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/fitness-client/internal/serviceerr"
	"github.com/openkcm/fitness-client/pkg/api"
	"github.com/openkcm/fitness-client/pkg/asyncop"
	"github.com/openkcm/fitness-client/pkg/session"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Overview is what the status command shows.
type Overview struct {
	User           session.User       `json:"user" yaml:"user"`
	Notifications  []api.Notification `json:"notifications" yaml:"notifications"`
	UnreadCount    int                `json:"unreadCount" yaml:"unreadCount"`
	TokenExpiresAt *time.Time         `json:"tokenExpiresAt,omitempty" yaml:"tokenExpiresAt,omitempty"`
	TokenExpired   bool               `json:"tokenExpired" yaml:"tokenExpired"`
}

// Overview loads the profile and the notifications concurrently. The result
// and any failure are tracked by the returned operation.
func (a *App) Overview(ctx context.Context) (*asyncop.Operation[Overview], error) {
	op := asyncop.New(Overview{})

	if !a.Auth.State().IsAuthenticated() {
		op.SetError(ErrNotLoggedIn)
		return op, ErrNotLoggedIn
	}

	_, err := op.Execute(ctx, a.loadOverview, asyncop.OnError[Overview](func(e *serviceerr.Error) {
		slogctx.Warn(ctx, "Loading the overview failed", "code", e.Err, "retryable", e.Retryable())
	}))

	return op, err
}

func (a *App) loadOverview(ctx context.Context) (Overview, error) {
	var ov Overview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := a.Auth.FetchUserInfo(gctx)
		ov.User = user
		return err
	})
	g.Go(func() error {
		_, err := a.Notifications.FetchNotifications(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	state := a.Notifications.State()
	ov.Notifications = state.Notifications
	ov.UnreadCount = state.UnreadCount

	token, ok, err := a.Sessions.LoadToken(ctx)
	if err != nil {
		return Overview{}, err
	}
	if ok {
		// tokens are opaque to the client, a non-JWT token has no expiry to show
		claims, err := session.InspectToken(token)
		if err != nil {
			slogctx.Debug(ctx, "Token is not a readable JWT", "error", err)
		} else if !claims.ExpiresAt.IsZero() {
			ov.TokenExpiresAt = &claims.ExpiresAt
			ov.TokenExpired = claims.Expired(time.Now())
		}
	}

	return ov, nil
}
