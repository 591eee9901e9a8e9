package s3fs

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config carries connection defaults for the CLI, loadable from a TOML file.
// Explicit URI options always win over these defaults.
type Config struct {
	Region           string `toml:"region"`
	Scheme           string `toml:"scheme"`
	EndpointOverride string `toml:"endpoint_override"`
	Proxy            string `toml:"proxy"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return &cfg, nil
}

// apply fills fields of opts that were not set explicitly.
func (c *Config) apply(opts *Options) error {
	if opts.Region == "" {
		opts.Region = c.Region
	}
	if opts.Scheme == "" {
		opts.Scheme = c.Scheme
	}
	if opts.EndpointOverride == "" {
		opts.EndpointOverride = c.EndpointOverride
	}
	if c.Proxy != "" && opts.ProxyOptions == nil {
		proxy, err := ParseProxyUri(c.Proxy)
		if err != nil {
			return err
		}
		opts.ProxyOptions = proxy
	}
	return opts.Validate()
}
