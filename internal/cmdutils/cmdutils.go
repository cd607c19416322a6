package cmdutils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/openkcm/common-sdk/pkg/otlp"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/fitness-client/internal/config"
)

// BusinessFunc is the body of a command.
type BusinessFunc func(ctx context.Context, cfg *config.Config, args []string) error

// WrapperFunc prepares the ambient stack and runs a BusinessFunc.
type WrapperFunc func(ctx context.Context, fn BusinessFunc, cfg *config.Config, args []string) error

func CobraCommand(
	use, short, long, buildInfo string,
	wrapperFunc WrapperFunc,
	businessFunc BusinessFunc,
) *cobra.Command {
	return &cobra.Command{
		Use:          use,
		Short:        short,
		Long:         long,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(buildInfo)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			err = wrapperFunc(cmd.Context(), businessFunc, cfg, args)
			if err != nil {
				return fmt.Errorf("running %s: %w", cmd.Name(), err)
			}

			return nil
		},
	}
}

// RunAsCommand initialises the logger only.
func RunAsCommand(ctx context.Context, fn BusinessFunc, cfg *config.Config, args []string) error {
	return run(ctx, false, fn, cfg, args)
}

// RunWithTelemetry initialises the logger and OpenTelemetry.
func RunWithTelemetry(ctx context.Context, fn BusinessFunc, cfg *config.Config, args []string) error {
	return run(ctx, true, fn, cfg, args)
}

func run(ctx context.Context, withTelemetry bool, fn BusinessFunc, cfg *config.Config, args []string) error {
	// LoggerConfig
	err := logger.InitAsDefault(cfg.Logger, cfg.Application)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to initialise the logger")
	}
	slogctx.Debug(ctx, "Starting the command", slog.Any("config", cfg))

	// OpenTelemetry
	if withTelemetry {
		err = otlp.Init(ctx, &cfg.Application, &cfg.Telemetry, &cfg.Logger)
		if err != nil {
			return oops.In("main").Wrapf(err, "Failed to load the telemetry")
		}
	}

	// Business Logic
	err = fn(ctx, cfg, args)
	if err != nil {
		return oops.In("main").Wrapf(err, "Command failed")
	}

	return nil
}

func loadConfig(buildInfo string) (*config.Config, error) {
	// .env is a local development convenience
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	defaultValues := map[string]any{}
	cfg := &config.Config{}

	err := commoncfg.LoadConfig(
		cfg,
		defaultValues,
		"/etc/fitness-client",
		"$HOME/.fitness-client",
		".",
	)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	// Update Version
	err = commoncfg.UpdateConfigVersion(
		&cfg.BaseConfig,
		buildInfo,
	)
	if err != nil {
		return nil, fmt.Errorf("updating the version configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
