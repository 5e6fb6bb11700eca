/*
Package client is a Go client for the subset of the Docker Engine API that
a build platform needs: pulling, pushing and loading images while
following their progress streams, exporting the layers of an image, and
running short-lived containers.

Streaming operations report progress through an [UpdateListener]. The
listener is notified once before the request is sent, once for every
record the daemon streams back, and once when the operation ends, whether
or not it succeeded:

	cli, err := client.New(client.FromEnv)
	if err != nil {
		panic(err)
	}
	res, err := cli.ImagePull(ctx, "docker.io/library/alpine:latest", listener, client.ImagePullOptions{})
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Digest)
*/
package client

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/docker/go-connections/sockets"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DummyHost is the Host header sent for connections that have no host
// name, such as unix sockets. The ".localhost" TLD never resolves.
const DummyHost = "api.moby.localhost"

// DefaultAPIVersion is the API version used when none is configured. It is
// the oldest version that supports every operation of this client.
const DefaultAPIVersion = "1.24"

// DefaultDockerHost is the daemon address used if no host is configured.
const DefaultDockerHost = "unix:///var/run/docker.sock"

// Environment variables read by [FromEnv].
const (
	EnvOverrideHost       = "DOCKER_HOST"
	EnvOverrideAPIVersion = "DOCKER_API_VERSION"
	EnvOverrideCertPath   = "DOCKER_CERT_PATH"
	EnvTLSVerify          = "DOCKER_TLS_VERIFY"
)

// Client talks to a single daemon. It is safe for concurrent use.
type Client struct {
	clientConfig
}

// New returns a client for [DefaultDockerHost] and [DefaultAPIVersion],
// changed by ops in the order they are given:
//
//	cli, err := client.New(client.FromEnv, client.WithScratchDir("/var/tmp"))
func New(ops ...Opt) (*Client, error) {
	hostURL, err := ParseHostURL(DefaultDockerHost)
	if err != nil {
		return nil, err
	}

	client, err := defaultHTTPClient(hostURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		clientConfig: clientConfig{
			host:     DefaultDockerHost,
			version:  DefaultAPIVersion,
			client:   client,
			proto:    hostURL.Scheme,
			addr:     hostURL.Host,
			basePath: hostURL.Path,
			traceOpts: []otelhttp.Option{
				otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
					return req.Method + " " + req.URL.Path
				}),
			},
		},
	}

	for _, op := range ops {
		if err := op(&c.clientConfig); err != nil {
			return nil, err
		}
	}

	c.scheme = "http"
	if tr, ok := c.client.Transport.(*http.Transport); ok && tr.TLSClientConfig != nil {
		c.scheme = "https"
	}

	c.client.Transport = otelhttp.NewTransport(c.client.Transport, c.traceOpts...)

	return c, nil
}

func defaultHTTPClient(hostURL *url.URL) (*http.Client, error) {
	transport := &http.Transport{}
	if err := sockets.ConfigureTransport(transport, hostURL.Scheme, hostURL.Host); err != nil {
		return nil, err
	}
	return &http.Client{
		Transport:     transport,
		CheckRedirect: CheckRedirect,
	}, nil
}

// CheckRedirect is the redirect policy of the default HTTP client. A
// redirected GET returns the redirect response itself; any other redirected
// method fails with [ErrRedirect], since the daemon only redirects requests
// with a malformed path and replaying them as GET would hide that.
func CheckRedirect(_ *http.Request, via []*http.Request) error {
	if via[0].Method == http.MethodGet {
		return http.ErrUseLastResponse
	}
	return ErrRedirect
}

// Close releases idle connections of the transport.
func (cli *Client) Close() error {
	if t, ok := cli.client.Transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
	return nil
}

// getAPIPath prefixes p with the base path and API version, and appends
// the encoded query.
func (cli *Client) getAPIPath(p string, query url.Values) string {
	var apiPath string
	if cli.version != "" {
		apiPath = path.Join(cli.basePath, "/v"+strings.TrimPrefix(cli.version, "v"), p)
	} else {
		apiPath = path.Join(cli.basePath, p)
	}
	return (&url.URL{Path: apiPath, RawQuery: query.Encode()}).String()
}

// ClientVersion returns the API version used by this client.
func (cli *Client) ClientVersion() string {
	return cli.version
}

// DaemonHost returns the address of the daemon.
func (cli *Client) DaemonHost() string {
	return cli.host
}

// HTTPClient returns a copy of the underlying HTTP client.
func (cli *Client) HTTPClient() *http.Client {
	c := *cli.client
	return &c
}

// ParseHostURL splits a daemon address of the form "proto://addr" into a
// URL. Only "tcp" addresses may carry a base path.
func ParseHostURL(host string) (*url.URL, error) {
	proto, addr, ok := strings.Cut(host, "://")
	if !ok || addr == "" {
		return nil, fmt.Errorf("unable to parse docker host `%s`", host)
	}

	var basePath string
	if proto == "tcp" {
		parsed, err := url.Parse("tcp://" + addr)
		if err != nil {
			return nil, err
		}
		addr = parsed.Host
		basePath = parsed.Path
	}
	return &url.URL{
		Scheme: proto,
		Host:   addr,
		Path:   basePath,
	}, nil
}
