package client

import (
	"context"
	"net/http"
	"path"
)

// PingResult holds the daemon properties reported by "GET /_ping".
type PingResult struct {
	// APIVersion is the highest API version the daemon supports.
	APIVersion string
	// OSType is the operating system of the daemon ("linux" or "windows").
	OSType string
	// Experimental is set if the daemon runs with experimental features.
	Experimental bool
}

// Ping checks that the daemon is reachable and returns the properties it
// reports in the response headers. The request is not versioned.
func (cli *Client) Ping(ctx context.Context) (PingResult, error) {
	req, err := cli.buildRequest(ctx, http.MethodGet, path.Join(cli.basePath, "/_ping"), nil, nil)
	if err != nil {
		return PingResult{}, err
	}
	resp, err := cli.doRequest(req)
	defer ensureReaderClosed(resp)
	if err != nil {
		return PingResult{}, err
	}

	ping := PingResult{
		APIVersion:   resp.Header.Get("Api-Version"),
		OSType:       resp.Header.Get("Ostype"),
		Experimental: resp.Header.Get("Docker-Experimental") == "true",
	}
	return ping, checkResponseErr(resp)
}
