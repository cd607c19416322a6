package sessionmemory

import (
	"context"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/openkcm/fitness-client/pkg/session"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// Repository is a process-local session store. Nothing survives the process.
type Repository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

var _ session.Repository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *Repository) LoadToken(_ context.Context) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.cache.Get(keyToken)
	if !ok {
		return "", false, nil
	}

	token, _ := v.(string)
	return token, token != "", nil
}

func (r *Repository) StoreToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Set(keyToken, token, cache.NoExpiration)
	return nil
}

func (r *Repository) LoadUser(_ context.Context) (session.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.cache.Get(keyUser)
	if !ok {
		return session.User{}, false, nil
	}

	user, ok := v.(session.User)
	return user, ok, nil
}

func (r *Repository) StoreUser(_ context.Context, user session.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Set(keyUser, user, cache.NoExpiration)
	return nil
}

func (r *Repository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Delete(keyToken)
	r.cache.Delete(keyUser)
	return nil
}
