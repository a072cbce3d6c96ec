package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"shokofin/internal/config"
	"shokofin/internal/daemon"
	"shokofin/internal/filestore"
	"shokofin/internal/logging"
	"shokofin/internal/preflight"
	"shokofin/internal/season"
	"shokofin/internal/services/jellyfin"
	"shokofin/internal/shoko"
	"shokofin/internal/tracker"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// ConfigPath is reread on SIGHUP. Empty disables reloads.
	ConfigPath string
}

// Run starts the shokofin daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		runCfg := *cfg
		runCfg.Logging.Level = level
		cfg = &runCfg
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	baseLogger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With(logging.String("run_id", uuid.NewString()))

	logConfigSnapshot(logger, cfg)
	for _, result := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
		logger.Warn("preflight check failed",
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run shokofin status for details"),
			logging.String(logging.FieldImpact, "dependent features may not work until resolved"),
		)
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := filestore.Open(cfg)
	if err != nil {
		logger.Error("open file store", logging.Error(err))
		return err
	}

	client, err := shoko.New(cfg.Shoko.APIKey, cfg.Shoko.URL,
		shoko.WithTimeout(time.Duration(cfg.Shoko.TimeoutSeconds)*time.Second))
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create shoko client: %w", err)
	}

	trk := tracker.New()
	resolver := season.NewResolver(client,
		season.WithLogger(logger),
		season.WithTracker(trk),
		season.WithSettings(daemon.SeasonSettings(cfg)),
	)

	d, err := daemon.New(cfg, store, resolver, trk, jellyfin.NewConfiguredNotifier(cfg), logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check for another running instance and the api bind address"),
		)
		return err
	}

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)
	for {
		select {
		case <-signalCtx.Done():
			logger.Info("shokofin daemon shutting down")
			return nil
		case <-reload:
			reloadConfig(logger, opts.ConfigPath, d)
		}
	}
}

// reloadConfig rereads the config file and applies the settings that can
// change at runtime. A bad file leaves the running settings untouched.
func reloadConfig(logger *slog.Logger, path string, d *daemon.Daemon) bool {
	if strings.TrimSpace(path) == "" {
		logger.Warn("config reload requested without a config path",
			logging.String(logging.FieldEventType, "config_reload_skipped"),
			logging.String(logging.FieldImpact, "running settings unchanged"),
		)
		return false
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		logging.WarnWithContext(logger, "config reload failed", "config_reload_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run shokofin config validate"),
			logging.String(logging.FieldImpact, "running settings unchanged"),
		)
		return false
	}
	d.ApplyConfig(cfg)
	return true
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("shoko_url", cfg.Shoko.URL),
		logging.Bool("shoko_key_present", strings.TrimSpace(cfg.Shoko.APIKey) != ""),
		logging.Bool("add_anidb_id", cfg.Metadata.AddAniDBID),
		logging.String("metadata_language", cfg.Metadata.Language),
		logging.Bool("events_enabled", cfg.Events.Enabled),
		logging.Bool("jellyfin_enabled", cfg.Jellyfin.Enabled),
		logging.Int("import_folders", len(cfg.ImportFolders)),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Bool("api_token_present", strings.TrimSpace(cfg.Paths.APIToken) != ""),
	)
}
