package transport

import (
	"context"
	"net/http"
)

// TokenSource yields the bearer token of the current session, if any.
type TokenSource interface {
	LoadToken(ctx context.Context) (string, bool, error)
}

// Authenticate attaches "Authorization: Bearer <token>" when a token is
// stored and leaves anonymous requests untouched. A failing token read is
// returned as is and the request is not sent.
func Authenticate(tokens TokenSource) Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			token, ok, err := tokens.LoadToken(req.Context())
			if err != nil {
				return nil, err
			}

			if ok {
				req = req.Clone(req.Context())
				req.Header.Set("Authorization", "Bearer "+token)
			}

			return next(req)
		}
	}
}
