// Package config loads the server's configuration: an optional YAML file
// read first, then the CLI flag surface of §6, with flags overriding
// whatever the file set.
package config

import (
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the resolved set of server knobs (§6 CLI surface plus the
// metrics addition of the Ambient Stack).
type Config struct {
	Host        string `yaml:"host"`
	Port        uint16 `yaml:"port"`
	MaxClients  int    `yaml:"max_clients"`
	MetricsAddr string `yaml:"metrics_addr"`
	ConfigFile  string `yaml:"-"`
}

// Default returns §6's documented defaults.
func Default() *Config {
	return &Config{
		Host:       "0.0.0.0",
		Port:       6379,
		MaxClients: 1024,
	}
}

// LoadFile reads path, overlaying its values onto c. A missing path is
// not an error — the config file is optional.
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// PreParseConfigFile scans args for --config/-c without touching any
// other flag, so the file can be loaded (and its values used as flag
// defaults) before the real flag set is built and parsed. Unknown flags
// and parse errors are ignored here; the real parse surfaces them.
func PreParseConfigFile(args []string) string {
	fs := pflag.NewFlagSet("preparse", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist = pflag.ParseErrorsWhitelist{UnknownFlags: true}
	fs.Usage = func() {}
	path := fs.StringP("config", "c", "", "")
	_ = fs.Parse(args)
	return *path
}

// RegisterFlags binds the §6 CLI surface (plus --metrics-addr) onto
// flags, using c's current values as defaults — so a prior LoadFile
// establishes the file's values, and only flags the caller actually
// passes on the command line override them.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Host, "host", c.Host, "address to bind")
	flags.Uint16VarP(&c.Port, "port", "p", c.Port, "port to bind")
	flags.IntVar(&c.MaxClients, "max-clients", c.MaxClients, "maximum concurrent sessions")
	flags.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "address for the Prometheus /metrics endpoint (empty disables it)")
	flags.StringVarP(&c.ConfigFile, "config", "c", c.ConfigFile, "optional YAML config file")
}
