// Package api wraps the member and notification REST endpoints one to one.
// Every call goes through the transport chain it is constructed with, so the
// errors it returns are *serviceerr.Error values.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/openkcm/fitness-client/internal/serviceerr"
	"github.com/openkcm/fitness-client/pkg/session"
	"github.com/openkcm/fitness-client/pkg/transport"
)

const (
	DefaultBaseURL            = "http://localhost:8000"
	DefaultMemberPrefix       = "/api/v1/member-service"
	DefaultNotificationPrefix = "/api/v1/notification-service"
)

type Config struct {
	BaseURL            string
	MemberPrefix       string
	NotificationPrefix string
}

type Client struct {
	baseURL            string
	memberPrefix       string
	notificationPrefix string
	handler            transport.Handler
}

func New(cfg Config, handler transport.Handler) *Client {
	return &Client{
		baseURL:            strings.TrimSuffix(orDefault(cfg.BaseURL, DefaultBaseURL), "/"),
		memberPrefix:       strings.TrimSuffix(orDefault(cfg.MemberPrefix, DefaultMemberPrefix), "/"),
		notificationPrefix: strings.TrimSuffix(orDefault(cfg.NotificationPrefix, DefaultNotificationPrefix), "/"),
		handler:            handler,
	}
}

// Signup registers a member. The session is not touched.
func (c *Client) Signup(ctx context.Context, id, password string, role session.Role) (Envelope, error) {
	if role == "" {
		role = session.RoleUser
	}

	var env Envelope
	err := c.do(ctx, http.MethodPost, c.memberPrefix+"/auth/signup", SignupRequest{ID: id, Password: password, Role: role}, &env)
	if err != nil {
		return Envelope{}, err
	}

	return env, nil
}

// Login exchanges credentials for a bearer token. An envelope that is not
// SUCCESS or carries no token is a failure.
func (c *Client) Login(ctx context.Context, id, password string) (string, error) {
	var env Envelope
	if err := c.do(ctx, http.MethodPost, c.memberPrefix+"/auth/login", LoginRequest{ID: id, Password: password}, &env); err != nil {
		return "", err
	}

	var token string
	if env.Status == StatusSuccess {
		if err := decodeData(env.Data, &token); err != nil {
			return "", serviceerr.Classify(fmt.Errorf("decoding login token: %w", err))
		}
	}

	if token == "" {
		return "", rejected(env.Message, "login was rejected")
	}

	return token, nil
}

// Logout invalidates the token server side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, c.memberPrefix+"/auth/logout", nil, nil)
}

// Profile fetches the member behind the current token.
func (c *Client) Profile(ctx context.Context) (session.User, error) {
	var env Envelope
	if err := c.do(ctx, http.MethodGet, c.memberPrefix+"/member", nil, &env); err != nil {
		return session.User{}, err
	}

	if env.Data == nil {
		return session.User{}, rejected(env.Message, "profile response carries no member")
	}

	var user session.User
	if err := decodeData(env.Data, &user); err != nil {
		return session.User{}, serviceerr.Classify(fmt.Errorf("decoding profile: %w", err))
	}

	return user.WithDefaults(), nil
}

// Notifications lists every notification of the member.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var list []Notification
	if err := c.do(ctx, http.MethodGet, c.notificationPrefix+"/notification", nil, &list); err != nil {
		return nil, err
	}

	return list, nil
}

// UnreadNotifications lists the notifications not yet acknowledged.
func (c *Client) UnreadNotifications(ctx context.Context) ([]Notification, error) {
	var list []Notification
	if err := c.do(ctx, http.MethodGet, c.notificationPrefix+"/notification/unread", nil, &list); err != nil {
		return nil, err
	}

	return list, nil
}

// MarkAsRead acknowledges one notification.
func (c *Client) MarkAsRead(ctx context.Context, notificationID int64) error {
	return c.do(ctx, http.MethodPatch, c.notificationPrefix+"/notification/read", MarkAsReadRequest{NotificationID: notificationID}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return serviceerr.Classify(fmt.Errorf("marshaling request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return serviceerr.Classify(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.handler(req)
	if err != nil {
		return serviceerr.Classify(err)
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return serviceerr.Classify(fmt.Errorf("decoding response of %s %s: %w", method, path, err))
	}

	return nil
}

func decodeData(data any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	return dec.Decode(data)
}

func rejected(serverMessage, fallback string) *serviceerr.Error {
	return &serviceerr.Error{
		Err:           serviceerr.CodeUnknown,
		Description:   orDefault(serverMessage, fallback),
		ServerMessage: serverMessage,
		StatusCode:    http.StatusOK,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return v
}
