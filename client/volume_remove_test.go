package client

import (
	"fmt"
	"net/http"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestVolumeRemoveError(t *testing.T) {
	client, err := New(WithMockClient(errorMock(http.StatusConflict, "volume is in use")))
	assert.NilError(t, err)

	err = client.VolumeRemove(t.Context(), "volume_id", false)
	assert.Check(t, is.ErrorType(err, cerrdefs.IsConflict))

	err = client.VolumeRemove(t.Context(), "", false)
	assert.Check(t, is.ErrorType(err, cerrdefs.IsInvalidArgument))
	assert.Check(t, is.ErrorContains(err, "value is empty"))
}

func TestVolumeRemove(t *testing.T) {
	tests := []struct {
		force    bool
		expected string
	}{
		{force: false, expected: ""},
		{force: true, expected: "1"},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("force=%t", tc.force), func(t *testing.T) {
			client, err := New(WithMockClient(func(req *http.Request) (*http.Response, error) {
				if err := assertRequest(req, http.MethodDelete, "/volumes/volume_id"); err != nil {
					return nil, err
				}
				if v := req.URL.Query().Get("force"); v != tc.expected {
					return nil, fmt.Errorf("force not set in URL query properly. Expected %q, got %q", tc.expected, v)
				}
				return mockResponse(http.StatusNoContent, nil, "")(req)
			}))
			assert.NilError(t, err)
			assert.NilError(t, client.VolumeRemove(t.Context(), "volume_id", tc.force))
		})
	}
}
