package sessionvalkey_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/openkcm/fitness-client/internal/dbtest/valkeytest"
	"github.com/openkcm/fitness-client/pkg/session"
	sessionvalkey "github.com/openkcm/fitness-client/pkg/session/valkey"
)

var client valkey.Client

func TestMain(m *testing.M) {
	ctx := context.Background()

	valkeyClient, _, terminate := valkeytest.Start(ctx)
	client = valkeyClient

	code := m.Run()
	terminate(ctx)

	os.Exit(code)
}

func prepareUser(t *testing.T, prefix string, user session.User) {
	t.Helper()

	key := fmt.Sprintf("%s:session:user", prefix)
	err := client.Do(t.Context(), client.B().Set().Key(key).Value(valkey.JSON(user)).Build()).Error()
	require.NoError(t, err, "inserting user")
}

func prepareToken(t *testing.T, prefix string, token string) {
	t.Helper()

	key := fmt.Sprintf("%s:session:token", prefix)
	err := client.Do(t.Context(), client.B().Set().Key(key).Value(valkey.JSON(token)).Build()).Error()
	require.NoError(t, err, "inserting token")
}

func keyExists(t *testing.T, key string) bool {
	t.Helper()

	n, err := client.Do(t.Context(), client.B().Exists().Key(key).Build()).AsInt64()
	require.NoError(t, err, "checking key")

	return n > 0
}

func TestRepository_LoadToken(t *testing.T) {
	const prefix = "fitness-client-load-token-test"

	prepareToken(t, prefix, "token-one")

	tests := []struct {
		name      string
		prefix    string
		wantToken string
		wantOK    bool
		assertErr assert.ErrorAssertionFunc
	}{
		{
			name:      "Existing token",
			prefix:    prefix,
			wantToken: "token-one",
			wantOK:    true,
			assertErr: assert.NoError,
		},
		{
			name:      "Absent token is not an error",
			prefix:    "fitness-client-does-not-exist",
			assertErr: assert.NoError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sessionvalkey.NewRepository(client, tt.prefix)

			gotToken, ok, err := r.LoadToken(t.Context())
			if !tt.assertErr(t, err, fmt.Sprintf("Repository.LoadToken() error %v", err)) || err != nil {
				return
			}

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantToken, gotToken, "Repository.LoadToken()")
		})
	}
}

func TestRepository_LoadUser(t *testing.T) {
	const prefix = "fitness-client-load-user-test"

	prepareUser(t, prefix, session.User{UserID: 7, Username: "kim", Role: session.RoleTrainer})

	r := sessionvalkey.NewRepository(client, prefix)
	user, ok, err := r.LoadUser(t.Context())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, session.User{UserID: 7, Username: "kim", Role: session.RoleTrainer}, user)

	r = sessionvalkey.NewRepository(client, "fitness-client-no-user")
	_, ok, err = r.LoadUser(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_StoreAndUpsert(t *testing.T) {
	const prefix = "fitness-client-store-test:"

	r := sessionvalkey.NewRepository(client, prefix)

	require.NoError(t, r.StoreToken(t.Context(), "first"))
	require.NoError(t, r.StoreToken(t.Context(), "second"))
	require.NoError(t, r.StoreUser(t.Context(), session.User{UserID: 1, Username: "lee", Role: session.RoleUser}))

	token, ok, err := r.LoadToken(t.Context())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", token)

	// trailing colon of the prefix is trimmed
	assert.True(t, keyExists(t, "fitness-client-store-test:session:token"))
	assert.True(t, keyExists(t, "fitness-client-store-test:session:user"))
}

func TestRepository_Clear(t *testing.T) {
	const prefix = "fitness-client-clear-test"

	prepareToken(t, prefix, "token-to-clear")
	prepareUser(t, prefix, session.User{UserID: 3, Username: "park"})

	r := sessionvalkey.NewRepository(client, prefix)
	require.NoError(t, r.Clear(t.Context()))

	assert.False(t, keyExists(t, prefix+":session:token"))
	assert.False(t, keyExists(t, prefix+":session:user"))

	s, err := session.Load(t.Context(), r)
	require.NoError(t, err)
	assert.Empty(t, s.Token)
	assert.Nil(t, s.User)

	// clearing an empty session is fine
	assert.NoError(t, r.Clear(t.Context()))
}
