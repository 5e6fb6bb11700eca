package client

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-connections/sockets"
	"github.com/docker/go-connections/tlsconfig"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// clientConfig is the part of a [Client] that options can change.
type clientConfig struct {
	scheme   string // "http" or "https", derived from the transport
	host     string // daemon address as given, e.g. "unix:///var/run/docker.sock"
	proto    string // "unix", "tcp", "npipe"
	addr     string
	basePath string

	client  *http.Client
	version string // API version without "v" prefix

	// userAgent, if non-nil, replaces any User-Agent from customHTTPHeaders.
	// An empty value suppresses the header.
	userAgent         *string
	customHTTPHeaders map[string]string

	// scratchDir receives spooled layer archives during an export; empty
	// means the OS temp directory.
	scratchDir string

	traceOpts []otelhttp.Option
}

// Opt is a configuration option to initialize a [Client].
type Opt func(*clientConfig) error

// FromEnv applies [WithTLSClientConfigFromEnv], [WithHostFromEnv] and
// [WithVersionFromEnv], in that order. Unset or empty variables keep the
// defaults.
func FromEnv(c *clientConfig) error {
	for _, op := range []Opt{
		WithTLSClientConfigFromEnv(),
		WithHostFromEnv(),
		WithVersionFromEnv(),
	} {
		if err := op(c); err != nil {
			return err
		}
	}
	return nil
}

// WithHost connects the client to the daemon at host, for example
// "unix:///var/run/docker.sock" or "tcp://10.0.0.2:2375".
func WithHost(host string) Opt {
	return func(c *clientConfig) error {
		u, err := ParseHostURL(host)
		if err != nil {
			return err
		}
		c.host, c.proto, c.addr, c.basePath = host, u.Scheme, u.Host, u.Path

		switch tr := c.client.Transport.(type) {
		case *http.Transport:
			return sockets.ConfigureTransport(tr, c.proto, c.addr)
		case testRoundTripper:
			return nil
		default:
			return fmt.Errorf("cannot apply host to transport: %T", c.client.Transport)
		}
	}
}

// testRoundTripper is a transport that WithHost accepts without
// configuring it, so tests can mock the daemon.
type testRoundTripper func(*http.Request) (*http.Response, error)

func (tf testRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return tf(req)
}

// WithHostFromEnv applies [WithHost] with the value of DOCKER_HOST
// ([EnvOverrideHost]) if it is set.
func WithHostFromEnv() Opt {
	return func(c *clientConfig) error {
		host := os.Getenv(EnvOverrideHost)
		if host == "" {
			return nil
		}
		return WithHost(host)(c)
	}
}

// WithHTTPClient replaces the HTTP client. A nil client is ignored.
func WithHTTPClient(client *http.Client) Opt {
	return func(c *clientConfig) error {
		if client != nil {
			c.client = client
		}
		return nil
	}
}

// WithUserAgent sets the User-Agent header of every request, overriding
// any value passed to [WithHTTPHeaders]. An empty ua sends no header.
func WithUserAgent(ua string) Opt {
	return func(c *clientConfig) error {
		c.userAgent = &ua
		return nil
	}
}

// WithHTTPHeaders adds headers to every request.
func WithHTTPHeaders(headers map[string]string) Opt {
	return func(c *clientConfig) error {
		c.customHTTPHeaders = headers
		return nil
	}
}

// WithTLSClientConfig loads the CA, certificate and key from the given
// paths into the transport. Empty paths are skipped.
func WithTLSClientConfig(cacertPath, certPath, keyPath string) Opt {
	return func(c *clientConfig) error {
		tr, ok := c.client.Transport.(*http.Transport)
		if !ok {
			return fmt.Errorf("cannot apply tls config to transport: %T", c.client.Transport)
		}
		tlsc, err := tlsconfig.Client(tlsconfig.Options{
			CAFile:             cacertPath,
			CertFile:           certPath,
			KeyFile:            keyPath,
			ExclusiveRootPools: true,
		})
		if err != nil {
			return fmt.Errorf("failed to create tls config: %w", err)
		}
		tr.TLSClientConfig = tlsc
		return nil
	}
}

// WithTLSClientConfigFromEnv loads "ca.pem", "cert.pem" and "key.pem" from
// the directory in DOCKER_CERT_PATH ([EnvOverrideCertPath]). Server
// certificates are only verified if DOCKER_TLS_VERIFY ([EnvTLSVerify]) is
// non-empty. Nothing changes if DOCKER_CERT_PATH is unset.
func WithTLSClientConfigFromEnv() Opt {
	return func(c *clientConfig) error {
		dir := os.Getenv(EnvOverrideCertPath)
		if dir == "" {
			return nil
		}
		tlsc, err := tlsconfig.Client(tlsconfig.Options{
			CAFile:             filepath.Join(dir, "ca.pem"),
			CertFile:           filepath.Join(dir, "cert.pem"),
			KeyFile:            filepath.Join(dir, "key.pem"),
			InsecureSkipVerify: os.Getenv(EnvTLSVerify) == "",
		})
		if err != nil {
			return err
		}
		c.client = &http.Client{
			Transport:     &http.Transport{TLSClientConfig: tlsc},
			CheckRedirect: CheckRedirect,
		}
		return nil
	}
}

// WithVersion pins the API version, with or without a "v" prefix. An
// empty version keeps [DefaultAPIVersion].
func WithVersion(version string) Opt {
	return func(c *clientConfig) error {
		if v := strings.TrimPrefix(version, "v"); v != "" {
			c.version = v
		}
		return nil
	}
}

// WithVersionFromEnv applies [WithVersion] with the value of
// DOCKER_API_VERSION ([EnvOverrideAPIVersion]).
func WithVersionFromEnv() Opt {
	return func(c *clientConfig) error {
		return WithVersion(os.Getenv(EnvOverrideAPIVersion))(c)
	}
}

// WithScratchDir sets the directory that layer archives are spooled to by
// [Client.ImageExportLayers] and [Client.ImageExportLayerFiles].
func WithScratchDir(dir string) Opt {
	return func(c *clientConfig) error {
		c.scratchDir = dir
		return nil
	}
}

// WithTraceProvider sets the provider of the spans created for each
// request. The global provider is used by default.
func WithTraceProvider(provider trace.TracerProvider) Opt {
	return func(c *clientConfig) error {
		c.traceOpts = append(c.traceOpts, otelhttp.WithTracerProvider(provider))
		return nil
	}
}
