package sessionfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/fitness-client/pkg/session"
	sessionfile "github.com/openkcm/fitness-client/pkg/session/file"
)

func TestRepository_MissingFileIsEmptySession(t *testing.T) {
	r := sessionfile.NewRepository(filepath.Join(t.TempDir(), "session.yaml"))

	s, err := session.Load(t.Context(), r)
	require.NoError(t, err)
	assert.Empty(t, s.Token)
	assert.Nil(t, s.User)
}

func TestRepository_StoreAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	r := sessionfile.NewRepository(path)

	user := session.User{UserID: 9, Username: "jung", Role: session.RoleUser}
	require.NoError(t, r.StoreToken(t.Context(), "token-9"))
	require.NoError(t, r.StoreUser(t.Context(), user))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// a fresh repository reads what the previous process wrote
	reopened := sessionfile.NewRepository(path)
	s, err := session.Load(t.Context(), reopened)
	require.NoError(t, err)
	assert.Equal(t, "token-9", s.Token)
	require.NotNil(t, s.User)
	assert.Equal(t, user, *s.User)
}

func TestRepository_StoreTokenKeepsUser(t *testing.T) {
	r := sessionfile.NewRepository(filepath.Join(t.TempDir(), "session.yaml"))

	require.NoError(t, r.StoreUser(t.Context(), session.User{UserID: 1, Username: "a"}))
	require.NoError(t, r.StoreToken(t.Context(), "t"))

	_, ok, err := r.LoadUser(t.Context())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepository_Clear(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	r := sessionfile.NewRepository(path)

	require.NoError(t, r.StoreToken(t.Context(), "token"))
	require.NoError(t, r.StoreUser(t.Context(), session.User{UserID: 2, Username: "b"}))

	require.NoError(t, r.Clear(t.Context()))

	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, ok, err := r.LoadToken(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = r.LoadUser(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files left behind")

	assert.NoError(t, r.Clear(t.Context()))
}

func TestRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))

	r := sessionfile.NewRepository(path)
	_, _, err := r.LoadToken(t.Context())
	assert.Error(t, err)
}
