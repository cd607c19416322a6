package config

import (
	"fmt"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/redis/go-redis/v9"
	"github.com/valkey-io/valkey-go"
)

func MakeValkeyOptions(conf ValKey) (valkey.ClientOption, error) {
	host, err := commoncfg.LoadValueFromSourceRef(conf.Host)
	if err != nil {
		return valkey.ClientOption{}, fmt.Errorf("loading valkey host: %w", err)
	}

	user, err := loadOptional(conf.User)
	if err != nil {
		return valkey.ClientOption{}, fmt.Errorf("loading valkey username: %w", err)
	}

	password, err := loadOptional(conf.Password)
	if err != nil {
		return valkey.ClientOption{}, fmt.Errorf("loading valkey password: %w", err)
	}

	opts := valkey.ClientOption{
		InitAddress: []string{string(host)},
		Username:    user,
		Password:    password,
	}

	if conf.SecretRef.Type == commoncfg.MTLSSecretType {
		tlsConfig, err := commoncfg.LoadMTLSConfig(&conf.SecretRef.MTLS)
		if err != nil {
			return valkey.ClientOption{}, fmt.Errorf("loading valkey mTLS config from secret ref: %w", err)
		}

		opts.TLSConfig = tlsConfig
	}

	return opts, nil
}

func MakeRedisOptions(conf Redis) (*redis.Options, error) {
	address, err := commoncfg.LoadValueFromSourceRef(conf.Address)
	if err != nil {
		return nil, fmt.Errorf("loading redis address: %w", err)
	}

	user, err := loadOptional(conf.User)
	if err != nil {
		return nil, fmt.Errorf("loading redis username: %w", err)
	}

	password, err := loadOptional(conf.Password)
	if err != nil {
		return nil, fmt.Errorf("loading redis password: %w", err)
	}

	return &redis.Options{
		Addr:     string(address),
		Username: user,
		Password: password,
		DB:       conf.DB,
	}, nil
}

// loadOptional resolves ref, treating an unset reference as empty.
func loadOptional(ref commoncfg.SourceRef) (string, error) {
	if ref.Source == "" {
		return "", nil
	}

	value, err := commoncfg.LoadValueFromSourceRef(ref)
	if err != nil {
		return "", err
	}

	return string(value), nil
}
