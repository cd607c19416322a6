package session

import "context"

// Repository is the durable storage of the bearer token and the cached
// profile. Reads must be usable before any network call is issued.
type Repository interface {
	// Token operations
	LoadToken(ctx context.Context) (string, bool, error)
	StoreToken(ctx context.Context, token string) error
	// User operations
	LoadUser(ctx context.Context) (User, bool, error)
	StoreUser(ctx context.Context, user User) error
	// Clear removes token and user in one step: no reader observes one
	// without the other being gone as well.
	Clear(ctx context.Context) error
}

// Load reads the whole session from the repository.
func Load(ctx context.Context, repo Repository) (Session, error) {
	token, ok, err := repo.LoadToken(ctx)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if ok {
		s.Token = token
	}

	user, ok, err := repo.LoadUser(ctx)
	if err != nil {
		return Session{}, err
	}
	if ok {
		s.User = &user
	}

	return s, nil
}
