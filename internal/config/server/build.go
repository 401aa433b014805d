package server

import "time"

// BuildServerConfig controls how published builds become visible to clients.
type BuildServerConfig struct {
	// SyncTime is the number of seconds a build must exist before it is
	// returned by the update API. Zero disables the delay.
	SyncTime int    `mapstructure:"sync_time" yaml:"sync_time"`
	BaseURL  string `mapstructure:"base_url"  yaml:"base_url"`
}

type CacheServerConfig struct {
	TTL  string `mapstructure:"ttl"  yaml:"ttl"`
	Size int    `mapstructure:"size" yaml:"size"`
}

func (c CacheServerConfig) Duration() time.Duration {
	return parseDuration(c.TTL, time.Hour)
}

type GerritServerConfig struct {
	URL     string `mapstructure:"url"     yaml:"url"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
	Limit   int    `mapstructure:"limit"   yaml:"limit"`
}

func (c GerritServerConfig) Duration() time.Duration {
	return parseDuration(c.Timeout, 5*time.Second)
}

type DevicesServerConfig struct {
	File      string `mapstructure:"file"       yaml:"file"`
	LocalFile string `mapstructure:"local_file" yaml:"local_file"`
}
