package transport_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	sessionmock "github.com/openkcm/fitness-client/pkg/session/mock"
	"github.com/openkcm/fitness-client/pkg/transport"
)

func TestAuthenticate(t *testing.T) {
	errLoad := errors.New("reading session file")

	tests := []struct {
		name       string
		repo       *sessionmock.Repository
		wantHeader string
		wantSent   bool
		assertErr  assert.ErrorAssertionFunc
	}{
		{
			name:       "Token is attached",
			repo:       sessionmock.NewInMemRepository(sessionmock.WithToken("abc")),
			wantHeader: "Bearer abc",
			wantSent:   true,
			assertErr:  assert.NoError,
		},
		{
			name:      "Anonymous request passes unmodified",
			repo:      sessionmock.NewInMemRepository(),
			wantSent:  true,
			assertErr: assert.NoError,
		},
		{
			name: "Token read failure is returned as is",
			repo: sessionmock.NewInMemRepository(sessionmock.WithLoadTokenError(errLoad)),
			assertErr: func(t assert.TestingT, err error, _ ...any) bool {
				return assert.Equal(t, errLoad, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent *http.Request
			h := transport.Chain(func(req *http.Request) (*http.Response, error) {
				sent = req
				return httptest.NewRecorder().Result(), nil
			}, transport.Authenticate(tt.repo))

			req := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/member", nil)
			resp, err := h(req)
			if resp != nil {
				defer resp.Body.Close()
			}
			tt.assertErr(t, err)

			if !tt.wantSent {
				assert.Nil(t, sent)
				return
			}

			assert.Equal(t, tt.wantHeader, sent.Header.Get("Authorization"))
			assert.Empty(t, req.Header.Get("Authorization"), "caller's request is not mutated")
		})
	}
}
