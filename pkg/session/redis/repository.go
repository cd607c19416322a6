package sessionredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/openkcm/fitness-client/pkg/session"
)

// Repository keeps the session in Redis with the same key layout as the
// valkey driver: <prefix>:session:token and <prefix>:session:user.
type Repository struct {
	client redis.Cmdable
	prefix string
}

var _ session.Repository = (*Repository)(nil)

func NewRepository(client redis.Cmdable, prefix string) *Repository {
	return &Repository{
		client: client,
		prefix: strings.TrimSuffix(prefix, ":"),
	}
}

func (r *Repository) LoadToken(ctx context.Context) (string, bool, error) {
	var token string
	ok, err := r.get(ctx, r.tokenKey(), &token)
	if err != nil {
		return "", false, fmt.Errorf("getting token from redis: %w", err)
	}

	return token, ok && token != "", nil
}

func (r *Repository) StoreToken(ctx context.Context, token string) error {
	if err := r.set(ctx, r.tokenKey(), token); err != nil {
		return fmt.Errorf("setting token into redis: %w", err)
	}

	return nil
}

func (r *Repository) LoadUser(ctx context.Context) (session.User, bool, error) {
	var user session.User
	ok, err := r.get(ctx, r.userKey(), &user)
	if err != nil {
		return session.User{}, false, fmt.Errorf("getting user from redis: %w", err)
	}

	return user, ok, nil
}

func (r *Repository) StoreUser(ctx context.Context, user session.User) error {
	if err := r.set(ctx, r.userKey(), user); err != nil {
		return fmt.Errorf("setting user into redis: %w", err)
	}

	return nil
}

func (r *Repository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey(), r.userKey()).Err(); err != nil {
		return fmt.Errorf("deleting session from redis: %w", err)
	}

	return nil
}

func (r *Repository) get(ctx context.Context, key string, into any) (bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("executing get command: %w", err)
	}

	if err := json.Unmarshal(val, into); err != nil {
		return false, fmt.Errorf("unmarshaling json: %w", err)
	}

	return true, nil
}

func (r *Repository) set(ctx context.Context, key string, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	if err := r.client.Set(ctx, key, val, 0).Err(); err != nil {
		return fmt.Errorf("executing set command: %w", err)
	}

	return nil
}

func (r *Repository) tokenKey() string {
	return r.prefix + ":session:token"
}

func (r *Repository) userKey() string {
	return r.prefix + ":session:user"
}
