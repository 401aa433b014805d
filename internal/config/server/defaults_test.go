package server

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, 3600, cfg.Build.SyncTime)
	assert.Equal(t, "sqlite", cfg.Metadata.Type)
	assert.Equal(t, "#", cfg.StatusURL)
	assert.Equal(t, time.Hour, cfg.Cache.Duration())
	assert.Equal(t, 5*time.Second, cfg.Gerrit.Duration())
}

func TestLoadServerConfigOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("build.sync_time", 0)
	viper.Set("cache.ttl", "90s")
	viper.Set("gerrit.timeout", "not-a-duration")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Build.SyncTime)
	assert.Equal(t, 90*time.Second, cfg.Cache.Duration())
	assert.Equal(t, 5*time.Second, cfg.Gerrit.Duration())
}
