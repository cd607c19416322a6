package business

import (
	"context"
	"fmt"
	"io"

	"github.com/openkcm/fitness-client/pkg/session"
)

// LoginCommand is what the user runs to get a new session.
const LoginCommand = "fitness-client auth login"

// TerminalNavigator tells the user the session is gone and where to log in
// again. A terminal cannot be redirected, so this is the CLI's navigation.
func TerminalNavigator(out io.Writer) session.Navigator {
	return session.NavigatorFunc(func(_ context.Context, target string) {
		_, _ = fmt.Fprintf(out, "Your session has expired. Run %q to log in again (%s).\n", LoginCommand, target)
	})
}
