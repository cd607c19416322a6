package sessionvalkey

import (
	"context"
	"errors"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/openkcm/fitness-client/internal/serviceerr"
	"github.com/openkcm/fitness-client/pkg/session"
)

const (
	objectTypeSession = "session"
	objectIDToken     = "token"
	objectIDUser      = "user"
)

// Repository keeps the session under <prefix>:session:token and
// <prefix>:session:user.
type Repository struct {
	store *store
}

var _ session.Repository = (*Repository)(nil)

func NewRepository(valkeyClient valkey.Client, prefix string) *Repository {
	return &Repository{
		store: newStore(valkeyClient, prefix),
	}
}

func (r *Repository) LoadToken(ctx context.Context) (string, bool, error) {
	var token string
	if err := r.store.Get(ctx, objectTypeSession, objectIDToken, &token); err != nil {
		if errors.Is(err, serviceerr.ErrNotFound) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("getting token from store: %w", err)
	}

	return token, token != "", nil
}

func (r *Repository) StoreToken(ctx context.Context, token string) error {
	if err := r.store.Set(ctx, objectTypeSession, objectIDToken, token); err != nil {
		return fmt.Errorf("setting token into storage: %w", err)
	}

	return nil
}

func (r *Repository) LoadUser(ctx context.Context) (session.User, bool, error) {
	var user session.User
	if err := r.store.Get(ctx, objectTypeSession, objectIDUser, &user); err != nil {
		if errors.Is(err, serviceerr.ErrNotFound) {
			return session.User{}, false, nil
		}

		return session.User{}, false, fmt.Errorf("getting user from store: %w", err)
	}

	return user, true, nil
}

func (r *Repository) StoreUser(ctx context.Context, user session.User) error {
	if err := r.store.Set(ctx, objectTypeSession, objectIDUser, user); err != nil {
		return fmt.Errorf("setting user into storage: %w", err)
	}

	return nil
}

func (r *Repository) Clear(ctx context.Context) error {
	if err := r.store.DestroyAll(ctx, objectTypeSession, objectIDToken, objectIDUser); err != nil {
		return fmt.Errorf("deleting session from store: %w", err)
	}

	return nil
}
