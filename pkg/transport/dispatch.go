package transport

import (
	"fmt"
	"net/http"

	"github.com/openkcm/fitness-client/internal/serviceerr"
)

// Dispatch is the innermost stage. Every failure of the underlying client
// means the request left without a response coming back and is marked with
// serviceerr.ErrNoResponse.
func Dispatch(client *http.Client) Handler {
	if client == nil {
		client = http.DefaultClient
	}

	return func(req *http.Request) (*http.Response, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", serviceerr.ErrNoResponse, err)
		}

		return resp, nil
	}
}
