package transport_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/fitness-client/internal/serviceerr"
	"github.com/openkcm/fitness-client/pkg/transport"
)

func TestInstrument_SetsRequestID(t *testing.T) {
	instrument, err := transport.Instrument(commoncfg.Application{Name: "fitness-client-test"})
	require.NoError(t, err)

	var seen []string
	h := transport.Chain(func(req *http.Request) (*http.Response, error) {
		seen = append(seen, req.Header.Get(transport.HeaderRequestID))
		return httptest.NewRecorder().Result(), nil
	}, instrument)

	for range 2 {
		resp, err := h(httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/notification", nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	require.Len(t, seen, 2)
	for _, id := range seen {
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
	}
	assert.NotEqual(t, seen[0], seen[1])
}

func TestInstrument_PassesErrorsThrough(t *testing.T) {
	instrument, err := transport.Instrument(commoncfg.Application{Name: "fitness-client-test"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		innerErr error
	}{
		{name: "classified error", innerErr: serviceerr.FromStatus(http.StatusForbidden, "")},
		{name: "plain error", innerErr: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := transport.Chain(func(*http.Request) (*http.Response, error) {
				return nil, tt.innerErr
			}, instrument)

			resp, err := h(httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/", nil))
			assert.Nil(t, resp)
			assert.Equal(t, tt.innerErr, err)
		})
	}
}
