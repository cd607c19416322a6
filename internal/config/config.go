// Package config defines the necessary types to configure the application.
// The config.yaml is looked up in /etc/fitness-client, $HOME/.fitness-client
// and the working directory.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/openkcm/fitness-client/internal/serviceerr"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	API     API     `yaml:"api"`
	Storage Storage `yaml:"storage"`
	ValKey  ValKey  `yaml:"valkey"`
	Redis   Redis   `yaml:"redis"`
}

type API struct {
	BaseURL            string        `yaml:"baseURL" default:"http://localhost:8000"`
	Timeout            time.Duration `yaml:"timeout" default:"10s"`
	MemberPrefix       string        `yaml:"memberPrefix" default:"/api/v1/member-service"`
	NotificationPrefix string        `yaml:"notificationPrefix" default:"/api/v1/notification-service"`
	LoginURL           string        `yaml:"loginURL" default:"/login"`
}

type StorageDriver string

const (
	StorageDriverFile   StorageDriver = "file"
	StorageDriverMemory StorageDriver = "memory"
	StorageDriverRedis  StorageDriver = "redis"
	StorageDriverValKey StorageDriver = "valkey"
)

type Storage struct {
	Driver StorageDriver `yaml:"driver" default:"file"`
	// Path of the session document for the file driver. Environment
	// variables are expanded.
	Path string `yaml:"path" default:"$HOME/.fitness-client/session.yaml"`
	// Prefix of the keys for the redis and valkey drivers.
	Prefix string `yaml:"prefix" default:"fitness-client"`
}

type ValKey struct {
	Host      commoncfg.SourceRef `yaml:"host"`
	User      commoncfg.SourceRef `yaml:"user"`
	Password  commoncfg.SourceRef `yaml:"password"`
	SecretRef commoncfg.SecretRef `yaml:"secretRef"`
}

type Redis struct {
	Address  commoncfg.SourceRef `yaml:"address"`
	User     commoncfg.SourceRef `yaml:"user"`
	Password commoncfg.SourceRef `yaml:"password"`
	DB       int                 `yaml:"db"`
}

// Validate checks the values the client cannot run without.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.baseURL %q is not an absolute URL", c.API.BaseURL))
	}

	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}

	switch c.Storage.Driver {
	case StorageDriverFile:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the file driver"))
		}
	case StorageDriverMemory, StorageDriverRedis, StorageDriverValKey:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{serviceerr.ErrInvalidConfig}, errs...)...)
	}

	return nil
}
