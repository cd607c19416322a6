package transport_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/fitness-client/pkg/transport"
)

func TestChain_FirstMiddlewareIsOutermost(t *testing.T) {
	var order []string
	stage := func(name string) transport.Middleware {
		return func(next transport.Handler) transport.Handler {
			return func(req *http.Request) (*http.Response, error) {
				order = append(order, name+" in")
				resp, err := next(req)
				order = append(order, name+" out")
				return resp, err
			}
		}
	}

	h := transport.Chain(func(req *http.Request) (*http.Response, error) {
		order = append(order, "dispatch")
		return httptest.NewRecorder().Result(), nil
	}, stage("a"), stage("b"), stage("c"))

	req := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/", nil)
	resp, err := h(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, []string{"a in", "b in", "c in", "dispatch", "c out", "b out", "a out"}, order)
}

func TestChain_NoMiddlewares(t *testing.T) {
	called := false
	h := transport.Chain(func(req *http.Request) (*http.Response, error) {
		called = true
		return nil, nil
	})

	_, _ = h(httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/", nil))
	assert.True(t, called)
}
