package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// errorResponse is the body the daemon sends along with a non-2xx status.
type errorResponse struct {
	Message string `json:"message"`
}

func (cli *Client) get(ctx context.Context, path string, query url.Values, headers http.Header) (*http.Response, error) {
	return cli.sendRequest(ctx, http.MethodGet, path, query, nil, headers)
}

// post sends body, if any, encoded as JSON.
func (cli *Client) post(ctx context.Context, path string, query url.Values, body any, headers http.Header) (*http.Response, error) {
	r, headers, err := encodeJSONBody(body, headers)
	if err != nil {
		return nil, err
	}
	return cli.sendRequest(ctx, http.MethodPost, path, query, r, headers)
}

// postRaw streams body as-is; headers should carry its Content-Type.
func (cli *Client) postRaw(ctx context.Context, path string, query url.Values, body io.Reader, headers http.Header) (*http.Response, error) {
	return cli.sendRequest(ctx, http.MethodPost, path, query, body, headers)
}

func (cli *Client) putRaw(ctx context.Context, path string, query url.Values, body io.Reader, headers http.Header) (*http.Response, error) {
	if body == nil {
		body = http.NoBody
	}
	return cli.sendRequest(ctx, http.MethodPut, path, query, body, headers)
}

func (cli *Client) delete(ctx context.Context, path string, query url.Values, headers http.Header) (*http.Response, error) {
	return cli.sendRequest(ctx, http.MethodDelete, path, query, nil, headers)
}

func encodeJSONBody(body any, headers http.Header) (io.Reader, http.Header, error) {
	if body == nil {
		return nil, headers, nil
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, headers, err
	}
	if headers == nil {
		headers = http.Header{}
	} else {
		headers = headers.Clone()
	}
	headers.Set("Content-Type", "application/json")
	return &buf, headers, nil
}

func (cli *Client) buildRequest(ctx context.Context, method, path string, body io.Reader, headers http.Header) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	cli.addHeaders(req, headers)
	req.URL.Scheme = cli.scheme
	req.URL.Host = cli.addr

	switch cli.proto {
	case "unix", "npipe":
		// the socket path is not a valid Host header
		req.Host = DummyHost
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "text/plain")
	}
	return req, nil
}

// sendRequest performs a versioned API call. The response is returned
// even on error, so that callers can always pass it to ensureReaderClosed.
func (cli *Client) sendRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, headers http.Header) (*http.Response, error) {
	req, err := cli.buildRequest(ctx, method, cli.getAPIPath(path, query), body, headers)
	if err != nil {
		return nil, err
	}
	resp, err := cli.doRequest(req)
	if err != nil {
		return resp, err
	}
	return resp, checkResponseErr(resp)
}

// doRequest sends req. Only failures to get any response are errors; the
// status code is not checked.
func (cli *Client) doRequest(req *http.Request) (*http.Response, error) {
	resp, err := cli.client.Do(req)
	if err != nil {
		return nil, cli.connectError(err)
	}
	return resp, nil
}

// connectError describes why no response was received, with a hint at
// the likely misconfiguration where one can be told.
func (cli *Client) connectError(err error) error {
	// callers compare against these
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	switch {
	case cli.scheme != "https" && strings.Contains(msg, "malformed HTTP response"):
		return errConnectionFailed{fmt.Errorf("%w.\n* Are you trying to connect to a TLS-enabled daemon without TLS?", err)}
	case cli.scheme == "https" && (strings.Contains(msg, "handshake failure") || strings.Contains(msg, "bad certificate")):
		return errConnectionFailed{fmt.Errorf("the daemon requires a client certificate; check the TLS settings: %w", err)}
	case errors.Is(err, os.ErrPermission):
		return errConnectionFailed{fmt.Errorf("permission denied while trying to connect to the docker API at %v", cli.host)}
	case errors.Is(err, os.ErrNotExist):
		return errConnectionFailed{fmt.Errorf("failed to connect to the docker API at %v; check if the path is correct and if the daemon is running: %w", cli.host, errors.Unwrap(err))}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return errConnectionFailed{fmt.Errorf("failed to connect to the docker API at %v: %w", cli.host, dnsErr)}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && (netErr.Timeout() || strings.Contains(msg, "connection refused") || strings.Contains(msg, "dial unix")) {
		return connectionFailed(cli.host)
	}
	return errConnectionFailed{fmt.Errorf("error during connect: %w", err)}
}

// checkResponseErr returns nil for a 1xx-3xx response, and otherwise an
// error carrying the daemon's message, classified by status code. The body
// is consumed but not closed.
func checkResponseErr(resp *http.Response) error {
	if resp == nil || (resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusBadRequest) {
		return nil
	}
	return httpErrorFromStatusCode(daemonError(resp), resp.StatusCode)
}

func daemonError(resp *http.Response) error {
	status := resp.Status
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}

	var body []byte
	if resp.Body != nil {
		lr := &io.LimitedReader{R: resp.Body, N: maxErrorBody}
		var err error
		if body, err = io.ReadAll(lr); err != nil {
			return err
		}
		if lr.N == 0 {
			return fmt.Errorf("request returned %s with a message (> %d bytes); check if the server supports the requested API version", status, maxErrorBody)
		}
	}
	if len(body) == 0 {
		return fmt.Errorf("request returned %s; check if the server supports the requested API version", status)
	}

	msg := strings.TrimSpace(string(body))
	if resp.Header.Get("Content-Type") == "application/json" {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return fmt.Errorf("error reading JSON: %w", err)
		}
		msg = strings.TrimSpace(errResp.Message)
		if msg == "" {
			msg = fmt.Sprintf("API returned a %d (%s) but provided no error-message", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
	}
	return fmt.Errorf("Error response from daemon: %w", errors.New(msg))
}

// addHeaders applies, in increasing precedence, the custom headers of the
// client, the headers of the call and the configured User-Agent.
func (cli *Client) addHeaders(req *http.Request, headers http.Header) {
	for k, v := range cli.customHTTPHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	if cli.userAgent == nil {
		return
	}
	if *cli.userAgent == "" {
		req.Header.Del("User-Agent")
	} else {
		req.Header.Set("User-Agent", *cli.userAgent)
	}
}

// ensureReaderClosed drains a little of the body so that the connection
// can be reused, and closes it.
func ensureReaderClosed(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, 512)
	_ = resp.Body.Close()
}
