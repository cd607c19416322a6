package sessionvalkey

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/fitness-client/internal/dbtest/valkeytest"
	"github.com/openkcm/fitness-client/internal/serviceerr"
)

func TestNewStore(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "keeps prefix", prefix: "fitness", want: "fitness"},
		{name: "trims trailing colon", prefix: "fitness:", want: "fitness"},
		{name: "trims only last trailing colon", prefix: "fitness:client:", want: "fitness:client"},
		{name: "handles empty prefix", prefix: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newStore(nil, tt.prefix).prefix)
		})
	}
}

func TestStoreKey(t *testing.T) {
	s := newStore(nil, "prefix")

	assert.Equal(t, "prefix:session:token", s.key("session", "token"))
	assert.Equal(t, "prefix:session:user", s.key("session", "user"))
	assert.Equal(t, "prefix:session:with:colons", s.key("session", "with:colons"))
}

func TestStoreCodec(t *testing.T) {
	s := newStore(nil, "prefix")

	t.Run("encodes string", func(t *testing.T) {
		bytes, err := s.encode("opaque-token")
		require.NoError(t, err)
		assert.Equal(t, `"opaque-token"`, string(bytes))
	})

	t.Run("returns error for invalid data", func(t *testing.T) {
		_, err := s.encode(make(chan int))
		assert.ErrorContains(t, err, "marshaling json")
	})

	t.Run("returns error for type mismatch", func(t *testing.T) {
		var decoded int
		err := s.decode([]byte(`{"key":"value"}`), &decoded)
		assert.ErrorContains(t, err, "unmarshaling json")
	})
}

func TestStoreSetGetDestroyAll(t *testing.T) {
	ctx := t.Context()
	valkeyClient, _, terminate := valkeytest.Start(ctx)
	defer terminate(ctx)

	prefix := "store-test-" + strings.ReplaceAll(time.Now().Format("20060102150405.000"), ".", "-")
	s := newStore(valkeyClient, prefix)

	t.Run("set and get", func(t *testing.T) {
		type profile struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}

		want := profile{ID: 7, Name: "alice"}
		require.NoError(t, s.Set(ctx, "session", "user", want))

		var got profile
		require.NoError(t, s.Get(ctx, "session", "user", &got))
		assert.Equal(t, want, got)
	})

	t.Run("get of an absent key is not found", func(t *testing.T) {
		var got string
		err := s.Get(ctx, "session", "absent", &got)
		assert.ErrorIs(t, err, serviceerr.ErrNotFound)
	})

	t.Run("overwrites existing key", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "session", "token", "first"))
		require.NoError(t, s.Set(ctx, "session", "token", "second"))

		var got string
		require.NoError(t, s.Get(ctx, "session", "token", &got))
		assert.Equal(t, "second", got)
	})

	t.Run("destroy all removes every key", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "session", "token", "t"))
		require.NoError(t, s.Set(ctx, "session", "user", "u"))

		require.NoError(t, s.DestroyAll(ctx, "session", "token", "user", "never-set"))

		var got string
		assert.ErrorIs(t, s.Get(ctx, "session", "token", &got), serviceerr.ErrNotFound)
		assert.ErrorIs(t, s.Get(ctx, "session", "user", &got), serviceerr.ErrNotFound)
	})
}
