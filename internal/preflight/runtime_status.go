package preflight

import (
	"context"
	"fmt"
	"strings"

	"shokofin/internal/config"
)

// CheckJellyfinFromConfig evaluates Jellyfin status from config and connectivity.
func CheckJellyfinFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Jellyfin"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Jellyfin.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Jellyfin.URL) == "" {
		return Result{Name: name, Detail: "Missing URL"}
	}
	if strings.TrimSpace(cfg.Jellyfin.APIKey) == "" {
		return Result{Name: name, Detail: "Missing API key"}
	}
	return CheckJellyfin(ctx, cfg.Jellyfin.URL, cfg.Jellyfin.APIKey)
}

// EventFeedFromConfig describes the change feed settings without connecting.
func EventFeedFromConfig(cfg *config.Config) Result {
	const name = "Change feed"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Events.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("Enabled (reconnect %ds, max %ds)", cfg.Events.ReconnectSeconds, cfg.Events.MaxReconnectSeconds),
	}
}
