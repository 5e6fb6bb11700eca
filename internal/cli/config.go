package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/imagestream/client"
	"github.com/pelletier/go-toml"
	"github.com/spf13/pflag"
)

// Config is the content of the configuration file. Every setting can be
// overridden with the command-line flag of the same name.
type Config struct {
	Host       string    `toml:"host"`
	APIVersion string    `toml:"api-version"`
	TLS        TLSConfig `toml:"tls"`
	ScratchDir string    `toml:"scratch-dir"`
	LogLevel   string    `toml:"log-level"`
}

// TLSConfig holds the paths of the certificates used to connect to a
// daemon that requires TLS.
type TLSConfig struct {
	CACert string `toml:"cacert"`
	Cert   string `toml:"cert"`
	Key    string `toml:"key"`
}

const defaultLogLevel = "info"

// defaultConfigFile returns the path of the configuration file used when
// --config is not set. It is not an error for that file to be missing.
func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "imagestream", "config.toml")
}

// LoadConfigFile reads the configuration file at path. If optional is set,
// a missing file results in an empty configuration.
func LoadConfigFile(path string, optional bool) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration file %s: %w", path, err)
	}
	return cfg, nil
}

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configFile string
	flags      Config
}

func (o *globalOptions) installFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.configFile, "config", defaultConfigFile(), "Location of the configuration file")
	flags.StringVarP(&o.flags.Host, "host", "H", "", "Daemon socket to connect to (default $DOCKER_HOST or "+client.DefaultDockerHost+")")
	flags.StringVar(&o.flags.APIVersion, "api-version", "", "API version to use (default $DOCKER_API_VERSION or "+client.DefaultAPIVersion+")")
	flags.StringVar(&o.flags.TLS.CACert, "tlscacert", "", "Trust certs signed only by this CA")
	flags.StringVar(&o.flags.TLS.Cert, "tlscert", "", "Path to TLS certificate file")
	flags.StringVar(&o.flags.TLS.Key, "tlskey", "", "Path to TLS key file")
	flags.StringVar(&o.flags.ScratchDir, "scratch-dir", "", "Directory for temporary layer files (default the system temporary directory)")
	flags.StringVarP(&o.flags.LogLevel, "log-level", "l", defaultLogLevel, `Set the logging level ("debug", "info", "warn", "error", "fatal")`)
}

// resolve loads the configuration file and applies the flags that were
// set on the command line on top of it.
func (o *globalOptions) resolve(flags *pflag.FlagSet) (Config, error) {
	cfg, err := LoadConfigFile(o.configFile, !flags.Changed("config"))
	if err != nil {
		return cfg, err
	}

	overrides := []struct {
		flag string
		dst  *string
		src  string
	}{
		{"host", &cfg.Host, o.flags.Host},
		{"api-version", &cfg.APIVersion, o.flags.APIVersion},
		{"tlscacert", &cfg.TLS.CACert, o.flags.TLS.CACert},
		{"tlscert", &cfg.TLS.Cert, o.flags.TLS.Cert},
		{"tlskey", &cfg.TLS.Key, o.flags.TLS.Key},
		{"scratch-dir", &cfg.ScratchDir, o.flags.ScratchDir},
		{"log-level", &cfg.LogLevel, o.flags.LogLevel},
	}
	for _, ov := range overrides {
		if flags.Changed(ov.flag) {
			*ov.dst = ov.src
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	return cfg, nil
}

// clientOptions returns the options to construct a client for cfg. Values
// from the environment apply unless cfg overrides them.
func (cfg Config) clientOptions() []client.Opt {
	ops := []client.Opt{client.FromEnv}
	if cfg.TLS.CACert != "" || cfg.TLS.Cert != "" || cfg.TLS.Key != "" {
		ops = append(ops, client.WithTLSClientConfig(cfg.TLS.CACert, cfg.TLS.Cert, cfg.TLS.Key))
	}
	if cfg.Host != "" {
		ops = append(ops, client.WithHost(cfg.Host))
	}
	if cfg.APIVersion != "" {
		ops = append(ops, client.WithVersion(cfg.APIVersion))
	}
	if cfg.ScratchDir != "" {
		ops = append(ops, client.WithScratchDir(cfg.ScratchDir))
	}
	return append(ops, client.WithUserAgent("imagestream"))
}
