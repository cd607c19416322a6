package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/openkcm/fitness-client/internal/business"
	"github.com/openkcm/fitness-client/internal/cmdutils"
	"github.com/openkcm/fitness-client/internal/config"
	"github.com/openkcm/fitness-client/pkg/session"
)

var errMissingPassword = errors.New("password is required, pass --password, type it at the prompt or pipe it to stdin")

func Cmd(buildInfo string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the session",
	}

	cmd.AddCommand(
		signupCmd(buildInfo),
		loginCmd(buildInfo),
		logoutCmd(buildInfo),
		whoamiCmd(buildInfo),
	)

	return cmd
}

func signupCmd(buildInfo string) *cobra.Command {
	var (
		opts business.SignupOptions
		role string
		cmd  *cobra.Command
	)

	cmd = cmdutils.CobraCommand(
		"signup",
		"Register a member",
		"Register a member. Signing up does not log in.",
		buildInfo,
		cmdutils.RunAsCommand,
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), opts.Password)
			if err != nil {
				return err
			}
			opts.Password = password
			opts.Role = session.Role(strings.ToUpper(role))

			return business.Signup(ctx, cfg, cmd.OutOrStdout(), opts)
		},
	)
	cmd.Args = cobra.NoArgs

	cmd.Flags().StringVar(&opts.ID, "id", "", "member id")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password, read from stdin when empty")
	cmd.Flags().StringVar(&role, "role", string(session.RoleUser), "USER or TRAINER")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func loginCmd(buildInfo string) *cobra.Command {
	var (
		opts business.LoginOptions
		cmd  *cobra.Command
	)

	cmd = cmdutils.CobraCommand(
		"login",
		"Start a session",
		"Exchange the credentials for a token and cache the profile.",
		buildInfo,
		cmdutils.RunAsCommand,
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), opts.Password)
			if err != nil {
				return err
			}
			opts.Password = password

			return business.Login(ctx, cfg, cmd.OutOrStdout(), opts)
		},
	)
	cmd.Args = cobra.NoArgs

	cmd.Flags().StringVar(&opts.ID, "id", "", "member id")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password, read from stdin when empty")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func logoutCmd(buildInfo string) *cobra.Command {
	var cmd *cobra.Command

	cmd = cmdutils.CobraCommand(
		"logout",
		"End the session",
		"Notify the backend and clear the local session, even when the backend call fails.",
		buildInfo,
		cmdutils.RunAsCommand,
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			return business.Logout(ctx, cfg, cmd.OutOrStdout())
		},
	)
	cmd.Args = cobra.NoArgs

	return cmd
}

func whoamiCmd(buildInfo string) *cobra.Command {
	var (
		output  string
		offline bool
		cmd     *cobra.Command
	)

	cmd = cmdutils.CobraCommand(
		"whoami",
		"Show the logged-in member",
		"Fetch and cache the profile of the logged-in member.",
		buildInfo,
		cmdutils.RunWithTelemetry,
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			format, err := business.ParseFormat(output)
			if err != nil {
				return err
			}

			return business.WhoAmI(ctx, cfg, cmd.OutOrStdout(), business.WhoAmIOptions{Format: format, Offline: offline})
		},
	)
	cmd.Args = cobra.NoArgs

	cmd.Flags().StringVarP(&output, "output", "o", string(business.FormatText), "output format: text, json or yaml")
	cmd.Flags().BoolVar(&offline, "offline", false, "print the cached profile without calling the backend")

	return cmd
}

// passwordReader resolves the password of signup and login: the flag value,
// a prompt without echo on a terminal, or the first line of piped stdin.
type passwordReader struct {
	isTerminal func(in io.Reader) bool
	prompt     func() (string, error)
}

var defaultPasswordReader = passwordReader{
	isTerminal: isTerminal,
	prompt:     promptPassword,
}

func readPassword(in io.Reader, flagValue string) (string, error) {
	return defaultPasswordReader.read(in, flagValue)
}

func (r passwordReader) read(in io.Reader, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	var (
		password string
		err      error
	)
	if r.isTerminal(in) {
		password, err = r.prompt()
	} else {
		password, err = readLine(in)
	}
	if err != nil {
		return "", err
	}

	if password == "" {
		return "", errMissingPassword
	}

	return password, nil
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func promptPassword() (string, error) {
	var password string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(func(s string) error {
					if s == "" {
						return errMissingPassword
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", fmt.Errorf("prompting for the password: %w", err)
	}

	return password, nil
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading the password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
