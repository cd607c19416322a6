// Package sessionfile keeps the session in a single YAML document on disk.
package sessionfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/openkcm/fitness-client/pkg/session"
)

const fileMode = 0o600

type document struct {
	Token string        `yaml:"token,omitempty"`
	User  *session.User `yaml:"user,omitempty"`
}

// Repository rewrites the whole document on every write through a temp file
// and a rename, so readers see either the old or the new pair.
type Repository struct {
	path string
	mu   sync.Mutex
}

var _ session.Repository = (*Repository)(nil)

func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Path of the session document.
func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) LoadToken(_ context.Context) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return "", false, err
	}

	return doc.Token, doc.Token != "", nil
}

func (r *Repository) StoreToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return err
	}
	doc.Token = token

	return r.write(doc)
}

func (r *Repository) LoadUser(_ context.Context) (session.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return session.User{}, false, err
	}
	if doc.User == nil {
		return session.User{}, false, nil
	}

	return *doc.User, true, nil
}

func (r *Repository) StoreUser(_ context.Context, user session.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return err
	}
	doc.User = &user

	return r.write(doc)
}

func (r *Repository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}

	return nil
}

func (r *Repository) read() (document, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("reading session file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("unmarshaling session file: %w", err)
	}

	return doc, nil
}

func (r *Repository) write(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling session file: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	err = errors.Join(err, tmp.Chmod(fileMode), tmp.Close())
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing session file: %w", err)
	}

	return nil
}
