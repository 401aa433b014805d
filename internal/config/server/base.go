package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	StatusURL       string `mapstructure:"status_url"       yaml:"status_url"`

	Log      LogServerConfig      `mapstructure:"log"      yaml:"log"`
	HTTP     HTTPServerConfig     `mapstructure:"http"     yaml:"http"`
	Metadata MetadataServerConfig `mapstructure:"metadata" yaml:"metadata"`
	Build    BuildServerConfig    `mapstructure:"build"    yaml:"build"`
	Cache    CacheServerConfig    `mapstructure:"cache"    yaml:"cache"`
	Gerrit   GerritServerConfig   `mapstructure:"gerrit"   yaml:"gerrit"`
	Devices  DevicesServerConfig  `mapstructure:"devices"  yaml:"devices"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// parseDuration falls back to def for empty or malformed values.
func parseDuration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return def
	}
	return d
}
