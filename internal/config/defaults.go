package config

const (
	defaultConfigPath          = "~/.config/shokofin/config.toml"
	defaultStateDir            = "~/.local/share/shokofin"
	defaultLogDir              = "~/.local/share/shokofin/logs"
	defaultAPIBind             = "127.0.0.1:8484"
	defaultShokoURL            = "http://127.0.0.1:8111"
	defaultShokoTimeoutSeconds = 30
	defaultMetadataLanguage    = "en"
	defaultMetadataCountry     = "US"
	defaultReconnectSeconds    = 5
	defaultMaxReconnectSeconds = 300
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Shoko: Shoko{
			URL:            defaultShokoURL,
			TimeoutSeconds: defaultShokoTimeoutSeconds,
		},
		Metadata: Metadata{
			Language:    defaultMetadataLanguage,
			CountryCode: defaultMetadataCountry,
		},
		Events: Events{
			Enabled:             true,
			ReconnectSeconds:    defaultReconnectSeconds,
			MaxReconnectSeconds: defaultMaxReconnectSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
