package business

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openkcm/fitness-client/internal/config"
	"github.com/openkcm/fitness-client/pkg/session"
)

var ErrNoCachedProfile = errors.New("no cached profile, run whoami without --offline")

type SignupOptions struct {
	ID       string
	Password string
	Role     session.Role
}

type LoginOptions struct {
	ID       string
	Password string
}

type WhoAmIOptions struct {
	Format Format
	// Offline prints the cached profile without calling the backend.
	Offline bool
}

// Signup registers a member. It does not log in.
func Signup(ctx context.Context, cfg *config.Config, out io.Writer, opts SignupOptions) error {
	return withApp(ctx, cfg, out, func(app *App) error {
		if err := app.Auth.Signup(ctx, opts.ID, opts.Password, opts.Role); err != nil {
			return fmt.Errorf("signing up: %w", err)
		}

		return NewPrinter(out, FormatText).Message("Signed up %q. Run %q to start a session.", opts.ID, LoginCommand)
	})
}

// Login starts a session and caches the profile.
func Login(ctx context.Context, cfg *config.Config, out io.Writer, opts LoginOptions) error {
	return withApp(ctx, cfg, out, func(app *App) error {
		if err := app.Auth.Login(ctx, opts.ID, opts.Password); err != nil {
			return fmt.Errorf("logging in: %w", err)
		}

		user := app.Auth.State().User
		return NewPrinter(out, FormatText).Message("Logged in as %s (%s).", user.Username, user.Role)
	})
}

// Logout ends the session. The local session is cleared even when the
// backend call fails.
func Logout(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return withApp(ctx, cfg, out, func(app *App) error {
		p := NewPrinter(out, FormatText)

		if err := app.Auth.Logout(ctx); err != nil {
			_ = p.Message("Session cleared locally.")
			return fmt.Errorf("logging out: %w", err)
		}

		return p.Message("Logged out.")
	})
}

// WhoAmI prints the profile of the logged-in member.
func WhoAmI(ctx context.Context, cfg *config.Config, out io.Writer, opts WhoAmIOptions) error {
	return withApp(ctx, cfg, out, func(app *App) error {
		if err := requireLogin(app); err != nil {
			return err
		}

		p := NewPrinter(out, opts.Format)

		if opts.Offline {
			cached := app.Auth.State().User
			if cached == nil {
				return ErrNoCachedProfile
			}
			return p.User(*cached)
		}

		user, err := app.Auth.FetchUserInfo(ctx)
		if err != nil {
			return fmt.Errorf("fetching the profile: %w", err)
		}

		return p.User(user)
	})
}

// ListNotifications prints every notification in server order.
func ListNotifications(ctx context.Context, cfg *config.Config, out io.Writer, format Format) error {
	return withApp(ctx, cfg, out, func(app *App) error {
		if err := requireLogin(app); err != nil {
			return err
		}

		list, err := app.Notifications.FetchNotifications(ctx)
		if err != nil {
			return fmt.Errorf("fetching notifications: %w", err)
		}

		return NewPrinter(out, format).Notifications(list)
	})
}

// UnreadCount prints the number of unread notifications.
func UnreadCount(ctx context.Context, cfg *config.Config, out io.Writer, format Format) error {
	return withApp(ctx, cfg, out, func(app *App) error {
		if err := requireLogin(app); err != nil {
			return err
		}

		if _, err := app.Notifications.FetchUnreadCount(ctx); err != nil {
			return fmt.Errorf("fetching unread notifications: %w", err)
		}

		return NewPrinter(out, format).UnreadCount(app.Notifications.State().UnreadCount)
	})
}

// MarkAsRead acknowledges one notification and prints what is left unread.
func MarkAsRead(ctx context.Context, cfg *config.Config, out io.Writer, notificationID int64) error {
	return withApp(ctx, cfg, out, func(app *App) error {
		if err := requireLogin(app); err != nil {
			return err
		}

		if _, err := app.Notifications.FetchNotifications(ctx); err != nil {
			return fmt.Errorf("fetching notifications: %w", err)
		}

		if err := app.Notifications.MarkAsRead(ctx, notificationID); err != nil {
			return fmt.Errorf("marking notification %d as read: %w", notificationID, err)
		}

		return NewPrinter(out, FormatText).Message("Notification %d marked as read, %d unread left.",
			notificationID, app.Notifications.State().UnreadCount)
	})
}

// Status prints the profile, the token expiry and the notification summary.
func Status(ctx context.Context, cfg *config.Config, out io.Writer, format Format) error {
	return withApp(ctx, cfg, out, func(app *App) error {
		op, err := app.Overview(ctx)
		if err != nil {
			snap := op.Snapshot()
			if snap.Retryable {
				return fmt.Errorf("loading the status (%s, try again later): %w", snap.Error, err)
			}
			return fmt.Errorf("loading the status: %w", err)
		}

		return NewPrinter(out, format).Overview(op.Snapshot().Data)
	})
}

func requireLogin(app *App) error {
	if !app.Auth.State().IsAuthenticated() {
		return fmt.Errorf("%w: run %q first", ErrNotLoggedIn, LoginCommand)
	}

	return nil
}

func withApp(ctx context.Context, cfg *config.Config, out io.Writer, fn func(*App) error) error {
	app, err := New(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app)
}
