package status

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openkcm/fitness-client/internal/business"
	"github.com/openkcm/fitness-client/internal/cmdutils"
	"github.com/openkcm/fitness-client/internal/config"
)

func Cmd(buildInfo string) *cobra.Command {
	var (
		output string
		cmd    *cobra.Command
	)

	cmd = cmdutils.CobraCommand(
		"status",
		"Show the session and notification summary",
		"Load the profile and the notifications concurrently and show when the token expires.",
		buildInfo,
		cmdutils.RunWithTelemetry,
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			format, err := business.ParseFormat(output)
			if err != nil {
				return err
			}

			return business.Status(ctx, cfg, cmd.OutOrStdout(), format)
		},
	)
	cmd.Args = cobra.NoArgs
	cmd.Flags().StringVarP(&output, "output", "o", string(business.FormatText), "output format: text, json or yaml")

	return cmd
}
