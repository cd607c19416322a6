package notification

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/openkcm/fitness-client/internal/business"
	"github.com/openkcm/fitness-client/internal/cmdutils"
	"github.com/openkcm/fitness-client/internal/config"
)

func Cmd(buildInfo string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notification",
		Aliases: []string{"notifications"},
		Short:   "Read and acknowledge notifications",
	}

	cmd.AddCommand(
		listCmd(buildInfo),
		unreadCmd(buildInfo),
		readCmd(buildInfo),
	)

	return cmd
}

func listCmd(buildInfo string) *cobra.Command {
	var (
		output string
		cmd    *cobra.Command
	)

	cmd = cmdutils.CobraCommand(
		"list",
		"List every notification",
		"List every notification of the logged-in member in server order.",
		buildInfo,
		cmdutils.RunWithTelemetry,
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			format, err := business.ParseFormat(output)
			if err != nil {
				return err
			}

			return business.ListNotifications(ctx, cfg, cmd.OutOrStdout(), format)
		},
	)
	cmd.Args = cobra.NoArgs
	cmd.Flags().StringVarP(&output, "output", "o", string(business.FormatText), "output format: text, json or yaml")

	return cmd
}

func unreadCmd(buildInfo string) *cobra.Command {
	var (
		output string
		cmd    *cobra.Command
	)

	cmd = cmdutils.CobraCommand(
		"unread",
		"Count unread notifications",
		"Count the notifications the logged-in member has not read yet.",
		buildInfo,
		cmdutils.RunWithTelemetry,
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			format, err := business.ParseFormat(output)
			if err != nil {
				return err
			}

			return business.UnreadCount(ctx, cfg, cmd.OutOrStdout(), format)
		},
	)
	cmd.Args = cobra.NoArgs
	cmd.Flags().StringVarP(&output, "output", "o", string(business.FormatText), "output format: text, json or yaml")

	return cmd
}

func readCmd(buildInfo string) *cobra.Command {
	var cmd *cobra.Command

	cmd = cmdutils.CobraCommand(
		"read <notification-id>",
		"Mark a notification as read",
		"Acknowledge one notification. Marking an already read notification again is harmless.",
		buildInfo,
		cmdutils.RunWithTelemetry,
		func(ctx context.Context, cfg *config.Config, args []string) error {
			id, err := ParseNotificationID(args[0])
			if err != nil {
				return err
			}

			return business.MarkAsRead(ctx, cfg, cmd.OutOrStdout(), id)
		},
	)
	cmd.Args = cobra.ExactArgs(1)

	return cmd
}

// ParseNotificationID reads a positive notification id.
func ParseNotificationID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid notification id %q: expected a positive integer", s)
	}

	return id, nil
}
