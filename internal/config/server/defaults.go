package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		ShutdownTimeout: "10s",
		StatusURL:       "#",

		Log: LogServerConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogServerRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},
		HTTP: HTTPServerConfig{
			Address:  ":8080",
			Compress: true,
		},
		Metadata: MetadataServerConfig{
			Type: "sqlite",
			SQLite: MetadataSQLiteConfig{
				Path: "updater.db",
			},
			Postgres: MetadataPostgresConfig{
				DSN:          "",
				MaxOpenConns: 20,
			},
		},
		Build: BuildServerConfig{
			SyncTime: 3600,
			BaseURL:  "",
		},
		Cache: CacheServerConfig{
			TTL:  "1h",
			Size: 4096,
		},
		Gerrit: GerritServerConfig{
			URL:     "https://review.lineageos.org",
			Timeout: "5s",
			Limit:   100,
		},
		Devices: DevicesServerConfig{
			File:      "devices.json",
			LocalFile: "devices_local.json",
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)
	viper.SetDefault("status_url", defaults.StatusURL)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("http.address", defaults.HTTP.Address)
	viper.SetDefault("http.compress", defaults.HTTP.Compress)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)
	viper.SetDefault("metadata.postgres.dsn", defaults.Metadata.Postgres.DSN)
	viper.SetDefault("metadata.postgres.max_open_conns", defaults.Metadata.Postgres.MaxOpenConns)

	viper.SetDefault("build.sync_time", defaults.Build.SyncTime)
	viper.SetDefault("build.base_url", defaults.Build.BaseURL)

	viper.SetDefault("cache.ttl", defaults.Cache.TTL)
	viper.SetDefault("cache.size", defaults.Cache.Size)

	viper.SetDefault("gerrit.url", defaults.Gerrit.URL)
	viper.SetDefault("gerrit.timeout", defaults.Gerrit.Timeout)
	viper.SetDefault("gerrit.limit", defaults.Gerrit.Limit)

	viper.SetDefault("devices.file", defaults.Devices.File)
	viper.SetDefault("devices.local_file", defaults.Devices.LocalFile)
}
