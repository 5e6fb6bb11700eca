package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// WithMockClient replaces the transport of the client with fn, so that
// tests can inspect requests and return canned responses.
func WithMockClient(fn func(*http.Request) (*http.Response, error)) Opt {
	return func(c *clientConfig) error {
		c.client = &http.Client{
			Transport:     testRoundTripper(fn),
			CheckRedirect: CheckRedirect,
		}
		return nil
	}
}

// assertRequest checks the method and the (unversioned) path of req.
func assertRequest(req *http.Request, expMethod string, expectedPath string) error {
	if !strings.HasPrefix(expectedPath, "/v1.") {
		expectedPath = "/v" + DefaultAPIVersion + expectedPath
	}
	if req.URL.Path != expectedPath {
		return fmt.Errorf("expected URL '%s', got '%s'", expectedPath, req.URL.Path)
	}
	if req.Method != expMethod {
		return fmt.Errorf("expected %s method, got %s", expMethod, req.Method)
	}
	return nil
}

func errorMock(statusCode int, message string) func(req *http.Request) (*http.Response, error) {
	return mockJSONResponse(statusCode, nil, errorResponse{Message: message})
}

func mockJSONResponse[T any](statusCode int, headers http.Header, resp T) func(req *http.Request) (*http.Response, error) {
	respBody, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	hdr := make(http.Header)
	if headers != nil {
		hdr = headers.Clone()
	}
	hdr.Set("Content-Type", "application/json")
	return mockResponse(statusCode, hdr, string(respBody))
}

func mockResponse(statusCode int, headers http.Header, body string) func(req *http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			Status:     http.StatusText(statusCode),
			StatusCode: statusCode,
			Header:     headers,
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	}
}

// mockStream returns a response whose body is the concatenation of the
// JSON encoding of each record, one per line.
func mockStream[T any](records ...T) func(req *http.Request) (*http.Response, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			panic(err)
		}
	}
	return mockResponse(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, buf.String())
}

// countingListener records the notifications it receives.
type countingListener[E any] struct {
	started  int
	finished int
	events   []E
	err      error
}

func (l *countingListener[E]) OnStart() {
	l.started++
}

func (l *countingListener[E]) OnUpdate(event E) error {
	l.events = append(l.events, event)
	return l.err
}

func (l *countingListener[E]) OnFinish() {
	l.finished++
}
