package sessionmock

import (
	"context"
	"sync"

	"github.com/openkcm/fitness-client/pkg/session"
)

// Repository is an in-memory session.Repository with injectable errors.
type Repository struct {
	mu    sync.Mutex
	Token string
	User  *session.User

	// Clears counts calls to Clear.
	Clears int

	loadTokenErr, storeTokenErr, loadUserErr, storeUserErr, clearErr error
}

var _ session.Repository = (*Repository)(nil)

type RepositoryOption func(*Repository)

func WithToken(token string) RepositoryOption {
	return func(r *Repository) { r.Token = token }
}

func WithUser(user session.User) RepositoryOption {
	return func(r *Repository) { r.User = &user }
}

func WithLoadTokenError(err error) RepositoryOption {
	return func(r *Repository) { r.loadTokenErr = err }
}

func WithStoreTokenError(err error) RepositoryOption {
	return func(r *Repository) { r.storeTokenErr = err }
}

func WithLoadUserError(err error) RepositoryOption {
	return func(r *Repository) { r.loadUserErr = err }
}

func WithStoreUserError(err error) RepositoryOption {
	return func(r *Repository) { r.storeUserErr = err }
}

func WithClearError(err error) RepositoryOption {
	return func(r *Repository) { r.clearErr = err }
}

func NewInMemRepository(opts ...RepositoryOption) *Repository {
	r := &Repository{}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Repository) LoadToken(ctx context.Context) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loadTokenErr != nil {
		return "", false, r.loadTokenErr
	}

	return r.Token, r.Token != "", nil
}

func (r *Repository) StoreToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.storeTokenErr != nil {
		return r.storeTokenErr
	}

	r.Token = token
	return nil
}

func (r *Repository) LoadUser(ctx context.Context) (session.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loadUserErr != nil {
		return session.User{}, false, r.loadUserErr
	}
	if r.User == nil {
		return session.User{}, false, nil
	}

	return *r.User, true, nil
}

func (r *Repository) StoreUser(ctx context.Context, user session.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.storeUserErr != nil {
		return r.storeUserErr
	}

	r.User = &user
	return nil
}

func (r *Repository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Clears++
	if r.clearErr != nil {
		return r.clearErr
	}

	r.Token = ""
	r.User = nil
	return nil
}

// Snapshot returns the stored pair under the lock.
func (r *Repository) Snapshot() (string, *session.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.Token, r.User
}

// ClearCount returns how often Clear was called.
func (r *Repository) ClearCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.Clears
}
