package business

import (
	"context"
	"fmt"
	"io"
	"net/http"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/fitness-client/internal/config"
	"github.com/openkcm/fitness-client/pkg/api"
	"github.com/openkcm/fitness-client/pkg/auth"
	"github.com/openkcm/fitness-client/pkg/notification"
	"github.com/openkcm/fitness-client/pkg/session"
	"github.com/openkcm/fitness-client/pkg/transport"
)

// App owns one instance of every client component, built from the config.
type App struct {
	Sessions      session.Repository
	Invalidator   *session.Invalidator
	API           *api.Client
	Auth          *auth.Store
	Notifications *notification.Store

	closeFn func()
}

// New wires the session repository, the transport chain, the API client and
// both stores. Session invalidation notices are written to out.
func New(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	sessions, closeFn, err := newRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialising the session repository: %w", err)
	}

	app, err := newApp(ctx, cfg, sessions, out)
	if err != nil {
		closeFn()
		return nil, err
	}
	app.closeFn = closeFn

	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config, sessions session.Repository, out io.Writer) (*App, error) {
	invalidator := session.NewInvalidator(sessions, TerminalNavigator(out), cfg.API.LoginURL)

	instrument, err := transport.Instrument(cfg.Application)
	if err != nil {
		return nil, fmt.Errorf("creating the instrumentation stage: %w", err)
	}

	handler := transport.Chain(
		transport.Dispatch(&http.Client{Timeout: cfg.API.Timeout}),
		instrument,
		transport.Classify(invalidator),
		transport.Authenticate(sessions),
	)

	client := api.New(api.Config{
		BaseURL:            cfg.API.BaseURL,
		MemberPrefix:       cfg.API.MemberPrefix,
		NotificationPrefix: cfg.API.NotificationPrefix,
	}, handler)

	authStore, err := auth.NewStore(ctx, client, sessions, invalidator)
	if err != nil {
		return nil, fmt.Errorf("loading the stored session: %w", err)
	}

	notifications := notification.NewStore(client)
	invalidator.OnInvalidate(func(context.Context) { notifications.Reset() })

	slogctx.Debug(ctx, "Client initialised",
		"baseURL", cfg.API.BaseURL,
		"storage", cfg.Storage.Driver,
		"status", authStore.State().Status,
	)

	return &App{
		Sessions:      sessions,
		Invalidator:   invalidator,
		API:           client,
		Auth:          authStore,
		Notifications: notifications,
		closeFn:       func() {},
	}, nil
}

// Close releases the storage connections.
func (a *App) Close() {
	a.closeFn()
}
