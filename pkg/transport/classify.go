package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/fitness-client/internal/serviceerr"
)

const maxErrorBody = 1 << 20

// Invalidator is notified of every unauthorized outcome.
type Invalidator interface {
	Invalidate(ctx context.Context) bool
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Classify turns every failed outcome into a *serviceerr.Error. Responses
// with a status below 400 pass through untouched. An unauthorized response
// additionally fires the invalidator once.
func Classify(invalidator Invalidator) Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()

			resp, err := next(req)
			if err != nil {
				return nil, serviceerr.Classify(err)
			}

			if resp.StatusCode < http.StatusBadRequest {
				return resp, nil
			}

			classified := serviceerr.FromStatus(resp.StatusCode, readServerMessage(ctx, resp))
			if classified.Err == serviceerr.CodeUnauthorized && invalidator != nil {
				invalidator.Invalidate(ctx)
			}

			return nil, classified
		}
	}
}

func readServerMessage(ctx context.Context, resp *http.Response) string {
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		slogctx.Debug(ctx, "Failed to read error response body", "error", err)
		return ""
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	if body.Message != "" {
		return body.Message
	}

	return body.Error
}
