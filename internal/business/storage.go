package business

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/valkey-io/valkey-go"

	"github.com/openkcm/fitness-client/internal/config"
	"github.com/openkcm/fitness-client/pkg/session"
	sessionfile "github.com/openkcm/fitness-client/pkg/session/file"
	sessionmemory "github.com/openkcm/fitness-client/pkg/session/memory"
	sessionredis "github.com/openkcm/fitness-client/pkg/session/redis"
	sessionvalkey "github.com/openkcm/fitness-client/pkg/session/valkey"
)

func newRepository(cfg *config.Config) (_ session.Repository, closeFn func(), _ error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverFile:
		return sessionfile.NewRepository(os.ExpandEnv(cfg.Storage.Path)), func() {}, nil
	case config.StorageDriverMemory:
		return sessionmemory.NewRepository(), func() {}, nil
	case config.StorageDriverRedis:
		opts, err := config.MakeRedisOptions(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("making redis options from config: %w", err)
		}

		client := redis.NewClient(opts)

		return sessionredis.NewRepository(client, cfg.Storage.Prefix), func() { _ = client.Close() }, nil
	case config.StorageDriverValKey:
		opts, err := config.MakeValkeyOptions(cfg.ValKey)
		if err != nil {
			return nil, nil, fmt.Errorf("making valkey options from config: %w", err)
		}

		client, err := valkey.NewClient(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("creating a new valkey client: %w", err)
		}

		return sessionvalkey.NewRepository(client, cfg.Storage.Prefix), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
