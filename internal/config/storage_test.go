package config

import (
	"testing"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
)

func embedded(v string) commoncfg.SourceRef {
	return commoncfg.SourceRef{Source: "embedded", Value: v}
}

func TestMakeValkeyOptions(t *testing.T) {
	tests := []struct {
		name      string
		conf      ValKey
		wantAddr  []string
		wantUser  string
		wantPass  string
		assertErr assert.ErrorAssertionFunc
	}{
		{
			name: "Make valkey options",
			conf: ValKey{
				Host:     embedded("valkey:6379"),
				User:     embedded("my_user"),
				Password: embedded("my_password"),
			},
			wantAddr:  []string{"valkey:6379"},
			wantUser:  "my_user",
			wantPass:  "my_password",
			assertErr: assert.NoError,
		},
		{
			name:      "Credentials are optional",
			conf:      ValKey{Host: embedded("localhost:6379")},
			wantAddr:  []string{"localhost:6379"},
			assertErr: assert.NoError,
		},
		{
			name: "Error - invalid host source",
			conf: ValKey{
				Host: commoncfg.SourceRef{Source: "invalid-source", Value: "my_host"},
			},
			assertErr: assert.Error,
		},
		{
			name: "Error - invalid password source",
			conf: ValKey{
				Host:     embedded("my_host"),
				Password: commoncfg.SourceRef{Source: "invalid-source", Value: "my_password"},
			},
			assertErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MakeValkeyOptions(tt.conf)
			if !tt.assertErr(t, err) || err != nil {
				return
			}

			assert.Equal(t, tt.wantAddr, got.InitAddress)
			assert.Equal(t, tt.wantUser, got.Username)
			assert.Equal(t, tt.wantPass, got.Password)
			assert.Nil(t, got.TLSConfig)
		})
	}
}

func TestMakeRedisOptions(t *testing.T) {
	tests := []struct {
		name      string
		conf      Redis
		wantAddr  string
		wantUser  string
		wantPass  string
		wantDB    int
		assertErr assert.ErrorAssertionFunc
	}{
		{
			name: "Make redis options",
			conf: Redis{
				Address:  embedded("redis:6379"),
				User:     embedded("default"),
				Password: embedded("secret"),
				DB:       2,
			},
			wantAddr:  "redis:6379",
			wantUser:  "default",
			wantPass:  "secret",
			wantDB:    2,
			assertErr: assert.NoError,
		},
		{
			name:      "Error - missing address",
			conf:      Redis{},
			assertErr: assert.Error,
		},
		{
			name: "Error - invalid user source",
			conf: Redis{
				Address: embedded("redis:6379"),
				User:    commoncfg.SourceRef{Source: "invalid-source", Value: "u"},
			},
			assertErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MakeRedisOptions(tt.conf)
			if !tt.assertErr(t, err) || err != nil {
				return
			}

			assert.Equal(t, tt.wantAddr, got.Addr)
			assert.Equal(t, tt.wantUser, got.Username)
			assert.Equal(t, tt.wantPass, got.Password)
			assert.Equal(t, tt.wantDB, got.DB)
		})
	}
}
