package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeShoko()
	c.normalizeMetadata()
	c.normalizeEvents()
	c.normalizeJellyfin()
	if err := c.normalizeImportFolders(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeShoko() {
	c.Shoko.APIKey = strings.TrimSpace(c.Shoko.APIKey)
	if c.Shoko.APIKey == "" {
		if value, ok := os.LookupEnv("SHOKO_API_KEY"); ok {
			c.Shoko.APIKey = strings.TrimSpace(value)
		}
	}
	c.Shoko.URL = strings.TrimRight(strings.TrimSpace(c.Shoko.URL), "/")
	if c.Shoko.URL == "" {
		c.Shoko.URL = defaultShokoURL
	}
	if c.Shoko.TimeoutSeconds == 0 {
		c.Shoko.TimeoutSeconds = defaultShokoTimeoutSeconds
	}
}

func (c *Config) normalizeMetadata() {
	c.Metadata.Language = strings.ToLower(strings.TrimSpace(c.Metadata.Language))
	if c.Metadata.Language == "" {
		c.Metadata.Language = defaultMetadataLanguage
	}
	c.Metadata.CountryCode = strings.ToUpper(strings.TrimSpace(c.Metadata.CountryCode))
	if c.Metadata.CountryCode == "" {
		c.Metadata.CountryCode = defaultMetadataCountry
	}
}

func (c *Config) normalizeEvents() {
	if c.Events.ReconnectSeconds == 0 {
		c.Events.ReconnectSeconds = defaultReconnectSeconds
	}
	if c.Events.MaxReconnectSeconds == 0 {
		c.Events.MaxReconnectSeconds = defaultMaxReconnectSeconds
	}
}

func (c *Config) normalizeJellyfin() {
	if c.Jellyfin.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYFIN_API_KEY"); ok {
			c.Jellyfin.APIKey = strings.TrimSpace(value)
		}
	}
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
}

func (c *Config) normalizeImportFolders() error {
	for i := range c.ImportFolders {
		folder := &c.ImportFolders[i]
		if strings.TrimSpace(folder.Path) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(folder.Path))
		if err != nil {
			return fmt.Errorf("import_folders[%d].path: %w", i, err)
		}
		folder.Path = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
