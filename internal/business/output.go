package business

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/openkcm/fitness-client/pkg/api"
	"github.com/openkcm/fitness-client/pkg/session"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts the values of the --output flag.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q, expected one of text, json, yaml", s)
	}
}

// Printer renders command results in the selected format.
type Printer struct {
	out    io.Writer
	format Format
}

func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{out: out, format: format}
}

func (p *Printer) Message(format string, args ...any) error {
	if p.format != FormatText {
		return nil
	}

	_, err := fmt.Fprintf(p.out, format+"\n", args...)
	return err
}

func (p *Printer) User(user session.User) error {
	return p.render(user, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "User ID:\t%d\nUsername:\t%s\nRole:\t%s\n", user.UserID, user.Username, user.Role)
		return err
	})
}

func (p *Printer) Notifications(list []api.Notification) error {
	if list == nil {
		list = []api.Notification{}
	}

	return p.render(list, func(w io.Writer) error {
		if len(list) == 0 {
			_, err := fmt.Fprintln(w, "No notifications.")
			return err
		}

		return writeNotifications(w, list)
	})
}

func (p *Printer) UnreadCount(count int) error {
	v := struct {
		UnreadCount int `json:"unreadCount" yaml:"unreadCount"`
	}{count}

	return p.render(v, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Unread notifications:\t%d\n", count)
		return err
	})
}

func (p *Printer) Overview(ov Overview) error {
	if ov.Notifications == nil {
		ov.Notifications = []api.Notification{}
	}

	return p.render(ov, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Logged in as:\t%s (%s, id %d)\n", ov.User.Username, ov.User.Role, ov.User.UserID)
		if err != nil {
			return err
		}

		switch {
		case ov.TokenExpiresAt == nil:
			_, err = fmt.Fprintln(w, "Token expires:\tunknown")
		case ov.TokenExpired:
			_, err = fmt.Fprintf(w, "Token expires:\texpired at %s\n", ov.TokenExpiresAt.Format(time.RFC3339))
		default:
			_, err = fmt.Fprintf(w, "Token expires:\t%s\n", ov.TokenExpiresAt.Format(time.RFC3339))
		}
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(w, "Notifications:\t%d (%d unread)\n", len(ov.Notifications), ov.UnreadCount)
		return err
	})
}

func (p *Printer) render(v any, text func(io.Writer) error) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = p.out.Write(data)
		return err
	default:
		tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
		if err := text(tw); err != nil {
			return err
		}
		return tw.Flush()
	}
}

func writeNotifications(w io.Writer, list []api.Notification) error {
	if _, err := fmt.Fprintln(w, "ID\tSTATUS\tFROM\tCONTENT"); err != nil {
		return err
	}

	for _, n := range list {
		status := "unread"
		if n.CheckNotification {
			status = "read"
		}

		if _, err := fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", n.NotificationID, status, n.SendByUserID, n.Content); err != nil {
			return err
		}
	}

	return nil
}
