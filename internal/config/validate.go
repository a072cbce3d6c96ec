package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateShoko(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := c.validateImportFolders(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateShoko() error {
	if c.Shoko.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("shoko.api_key is required. Set SHOKO_API_KEY env var or edit %s (create with 'shokofin config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Shoko.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("shoko.url must be an absolute URL, got %q", c.Shoko.URL)
	}
	if c.Shoko.TimeoutSeconds <= 0 {
		return errors.New("shoko.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.ReconnectSeconds <= 0 {
		return errors.New("events.reconnect_seconds must be positive")
	}
	if c.Events.MaxReconnectSeconds < c.Events.ReconnectSeconds {
		return errors.New("events.max_reconnect_seconds must not be less than events.reconnect_seconds")
	}
	return nil
}

func (c *Config) validateJellyfin() error {
	if !c.Jellyfin.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Jellyfin.URL) == "" {
		return errors.New("jellyfin.url must be set when jellyfin.enabled is true")
	}
	if strings.TrimSpace(c.Jellyfin.APIKey) == "" {
		return errors.New("jellyfin.api_key must be set when jellyfin.enabled is true")
	}
	return nil
}

func (c *Config) validateImportFolders() error {
	seen := make(map[int]struct{}, len(c.ImportFolders))
	for i, folder := range c.ImportFolders {
		if folder.ID <= 0 {
			return fmt.Errorf("import_folders[%d].id must be positive", i)
		}
		if strings.TrimSpace(folder.Path) == "" {
			return fmt.Errorf("import_folders[%d].path must be set", i)
		}
		if _, dup := seen[folder.ID]; dup {
			return fmt.Errorf("import_folders[%d].id %d is mapped more than once", i, folder.ID)
		}
		seen[folder.ID] = struct{}{}
	}
	return nil
}
