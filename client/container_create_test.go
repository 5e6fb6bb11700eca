package client

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/moby/imagestream/api/types/container"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestContainerCreateError(t *testing.T) {
	client, err := New(WithMockClient(errorMock(http.StatusInternalServerError, "Server error")))
	assert.NilError(t, err)

	_, err = client.ContainerCreate(t.Context(), nil)
	assert.Check(t, is.ErrorType(err, cerrdefs.IsInvalidArgument))

	_, err = client.ContainerCreate(t.Context(), &container.Config{Image: "builder"})
	assert.Check(t, is.ErrorType(err, cerrdefs.IsInternal))

	_, err = client.ContainerCreate(t.Context(), &container.Config{Image: "builder"}, ContainerContent{Destination: "/workspace"})
	assert.Check(t, is.ErrorType(err, cerrdefs.IsInvalidArgument))
}

func TestContainerCreateImageNotFound(t *testing.T) {
	client, err := New(WithMockClient(errorMock(http.StatusNotFound, "No such image: builder")))
	assert.NilError(t, err)
	_, err = client.ContainerCreate(t.Context(), &container.Config{Image: "builder"})
	assert.Check(t, is.ErrorType(err, cerrdefs.IsNotFound))
}

func TestContainerCreateWithContent(t *testing.T) {
	content, err := NewContainerContent("/platform/env", "CNB_USER_ID", "1000", "CNB_GROUP_ID", "1000")
	assert.NilError(t, err)

	var uploaded []string
	client, err := New(WithMockClient(func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/containers/create"):
			if err := assertRequest(req, http.MethodPost, "/containers/create"); err != nil {
				return nil, err
			}
			var config container.Config
			if err := json.NewDecoder(req.Body).Decode(&config); err != nil {
				return nil, err
			}
			if config.Image != "builder" {
				return nil, fmt.Errorf("expected image 'builder', got %q", config.Image)
			}
			if config.HostConfig == nil || len(config.HostConfig.Binds) != 1 {
				return nil, errors.New("expected host config with one bind")
			}
			return mockJSONResponse(http.StatusCreated, nil, container.CreateResponse{ID: "container_id"})(req)
		case strings.HasSuffix(req.URL.Path, "/archive"):
			if err := assertRequest(req, http.MethodPut, "/containers/container_id/archive"); err != nil {
				return nil, err
			}
			if p := req.URL.Query().Get("path"); p != "/platform/env" {
				return nil, fmt.Errorf("path not set in URL query properly, got %q", p)
			}
			if ct := req.Header.Get("Content-Type"); ct != "application/x-tar" {
				return nil, fmt.Errorf("expected application/x-tar content type, got %q", ct)
			}
			tr := tar.NewReader(req.Body)
			for {
				hdr, err := tr.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return nil, err
				}
				data, err := io.ReadAll(tr)
				if err != nil {
					return nil, err
				}
				uploaded = append(uploaded, hdr.Name+"="+string(data))
			}
			return mockResponse(http.StatusOK, nil, "")(req)
		default:
			return nil, fmt.Errorf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
	}))
	assert.NilError(t, err)

	resp, err := client.ContainerCreate(t.Context(), &container.Config{
		Image:      "builder",
		Cmd:        []string{"/cnb/lifecycle/creator"},
		HostConfig: &container.HostConfig{Binds: []string{"/var/run/docker.sock:/var/run/docker.sock"}},
	}, content)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(resp.ID, "container_id"))
	assert.Check(t, is.DeepEqual(uploaded, []string{"CNB_USER_ID=1000", "CNB_GROUP_ID=1000"}))
}

func TestNewContainerContentRelativePath(t *testing.T) {
	_, err := NewContainerContent("workspace", "file", "content")
	assert.Check(t, is.ErrorType(err, cerrdefs.IsInvalidArgument))
}
