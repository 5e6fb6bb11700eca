package client

import (
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestGetAPITagFromNamedRef(t *testing.T) {
	tests := []struct {
		ref      string
		expected string
	}{
		{ref: "alpine", expected: "latest"},
		{ref: "alpine:3.20", expected: "3.20"},
		{ref: "example.com:5000/team/app:v1", expected: "v1"},
		{
			ref:      "alpine@sha256:ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
			expected: "sha256:ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		},
	}
	for _, tc := range tests {
		t.Run(tc.ref, func(t *testing.T) {
			named, err := parseImageRef(tc.ref)
			assert.NilError(t, err)
			assert.Check(t, is.Equal(getAPITagFromNamedRef(named), tc.expected))
		})
	}
}

func TestParseImageRefInvalid(t *testing.T) {
	for _, ref := range []string{"", "   ", "UPPERCASE", "foo::bar"} {
		_, err := parseImageRef(ref)
		assert.Check(t, is.ErrorType(err, cerrdefs.IsInvalidArgument), "ref: %q", ref)
	}
}

func TestTrimID(t *testing.T) {
	id, err := trimID("container", "  abc  ")
	assert.NilError(t, err)
	assert.Check(t, is.Equal(id, "abc"))

	_, err = trimID("container", " ")
	assert.Check(t, is.ErrorType(err, cerrdefs.IsInvalidArgument))
	assert.Check(t, is.Error(err, "invalid container name or ID: value is empty"))
}

func TestFormatPlatform(t *testing.T) {
	assert.Check(t, is.Equal(formatPlatform(ocispec.Platform{OS: "linux", Architecture: "amd64"}), "linux/amd64"))
	assert.Check(t, is.Equal(formatPlatform(ocispec.Platform{OS: "linux", Architecture: "arm64", Variant: "v8"}), "linux/arm64/v8"))
	assert.Check(t, is.Equal(formatPlatform(ocispec.Platform{Architecture: "arm64"}), "unknown"))
}
