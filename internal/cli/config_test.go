package cli

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/fs"
)

const testConfig = `
host = "unix:///run/user/1000/docker.sock"
api-version = "1.44"
scratch-dir = "/var/tmp/imagestream"
log-level = "debug"

[tls]
cacert = "/etc/imagestream/ca.pem"
cert = "/etc/imagestream/cert.pem"
key = "/etc/imagestream/key.pem"
`

func TestLoadConfigFile(t *testing.T) {
	dir := fs.NewDir(t, "config", fs.WithFile("config.toml", testConfig))

	cfg, err := LoadConfigFile(dir.Join("config.toml"), false)
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(cfg, Config{
		Host:       "unix:///run/user/1000/docker.sock",
		APIVersion: "1.44",
		ScratchDir: "/var/tmp/imagestream",
		LogLevel:   "debug",
		TLS: TLSConfig{
			CACert: "/etc/imagestream/ca.pem",
			Cert:   "/etc/imagestream/cert.pem",
			Key:    "/etc/imagestream/key.pem",
		},
	}))
}

func TestLoadConfigFileMissing(t *testing.T) {
	dir := fs.NewDir(t, "config")

	cfg, err := LoadConfigFile(dir.Join("nosuchfile.toml"), true)
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(cfg, Config{}))

	_, err = LoadConfigFile(dir.Join("nosuchfile.toml"), false)
	assert.Check(t, is.ErrorIs(err, os.ErrNotExist))
}

func TestLoadConfigFileInvalid(t *testing.T) {
	dir := fs.NewDir(t, "config", fs.WithFile("config.toml", "host = [unterminated"))

	_, err := LoadConfigFile(dir.Join("config.toml"), false)
	assert.Check(t, is.ErrorContains(err, "invalid configuration file"))
}

func TestResolveFlagsOverrideFile(t *testing.T) {
	dir := fs.NewDir(t, "config", fs.WithFile("config.toml", testConfig))

	var opts globalOptions
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.installFlags(flags)
	assert.NilError(t, flags.Parse([]string{
		"--config", dir.Join("config.toml"),
		"--host", "tcp://10.0.0.1:2375",
		"--tlskey", "/home/me/key.pem",
	}))

	cfg, err := opts.resolve(flags)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(cfg.Host, "tcp://10.0.0.1:2375"))
	assert.Check(t, is.Equal(cfg.TLS.Key, "/home/me/key.pem"))

	// not set on the command line
	assert.Check(t, is.Equal(cfg.APIVersion, "1.44"))
	assert.Check(t, is.Equal(cfg.TLS.Cert, "/etc/imagestream/cert.pem"))
	assert.Check(t, is.Equal(cfg.LogLevel, "debug"))
}

func TestResolveDefaults(t *testing.T) {
	dir := fs.NewDir(t, "config", fs.WithFile("config.toml", ""))

	var opts globalOptions
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.installFlags(flags)
	assert.NilError(t, flags.Parse([]string{"--config", dir.Join("config.toml")}))

	cfg, err := opts.resolve(flags)
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(cfg, Config{LogLevel: "info"}))
	assert.Check(t, is.Len(cfg.clientOptions(), 2))
}

func TestResolveExplicitConfigMustExist(t *testing.T) {
	dir := fs.NewDir(t, "config")

	var opts globalOptions
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.installFlags(flags)
	assert.NilError(t, flags.Parse([]string{"--config", dir.Join("missing.toml")}))

	_, err := opts.resolve(flags)
	assert.Check(t, is.ErrorIs(err, os.ErrNotExist))
}

func TestConfigureLoggingInvalidLevel(t *testing.T) {
	err := configureLogging("chatty", os.Stderr)
	assert.Check(t, is.Error(err, "unable to parse logging level: chatty"))
}
