package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"shokofin/internal/config"
	"shokofin/internal/fileevents"
	"shokofin/internal/filestore"
	"shokofin/internal/logging"
	"shokofin/internal/season"
	"shokofin/internal/services"
	"shokofin/internal/services/jellyfin"
	"shokofin/internal/signalr"
	"shokofin/internal/tracker"
)

// Daemon coordinates the background services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *filestore.Store
	resolver *season.Resolver
	tracker  *tracker.Tracker
	notifier jellyfin.Notifier
	mapper   jellyfin.PathMapper
	feed     *signalr.Client
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt atomic.Pointer[time.Time]
	conflicts atomic.Int64
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running            bool            `json:"running"`
	StartedAt          *time.Time      `json:"started_at,omitempty"`
	FeedEnabled        bool            `json:"feed_enabled"`
	FeedConnected      bool            `json:"feed_connected"`
	Notifications      int64           `json:"notifications"`
	ReferenceConflicts int64           `json:"reference_conflicts"`
	TrackedFiles       int             `json:"tracked_files"`
	Active             []tracker.Entry `json:"active"`
	StoreDBPath        string          `json:"store_db_path"`
	LockFilePath       string          `json:"lock_file_path"`
}

// New constructs a daemon with initialized dependencies. A nil notifier
// disables library notifications.
func New(cfg *config.Config, store *filestore.Store, resolver *season.Resolver, trk *tracker.Tracker, notifier jellyfin.Notifier, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || resolver == nil {
		return nil, errors.New("daemon requires config, store, and resolver")
	}
	if trk == nil {
		trk = tracker.New()
	}
	if notifier == nil {
		notifier = jellyfin.NopNotifier{}
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		resolver: resolver,
		tracker:  trk,
		notifier: notifier,
		mapper:   jellyfin.NewPathMapper(cfg),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if cfg.Events.Enabled {
		feed, err := signalr.New(cfg, d, logger)
		if err != nil {
			return nil, fmt.Errorf("create change feed: %w", err)
		}
		d.feed = feed
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, then starts the change feed and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shokofin daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	if d.feed != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			_ = d.feed.Run(d.ctx)
		}()
	}

	now := time.Now().UTC()
	d.startedAt.Store(&now)
	d.running.Store(true)
	d.logger.Info("shokofin daemon started",
		logging.String("lock", d.lockPath),
		logging.Bool("feed_enabled", d.feed != nil),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("shokofin daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddress returns the bound API address, or "" when the API is not listening.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// HandleFileEvent records a change-feed notification and forwards the
// affected paths to the media server.
func (d *Daemon) HandleFileEvent(ctx context.Context, env *fileevents.Envelope) error {
	if env == nil || env.File == nil {
		return services.Wrap(services.ErrValidation, "daemon", "file event", "empty notification", nil)
	}
	logger := d.logger.With(
		logging.String(logging.FieldEventType, string(env.Kind)),
		logging.FileID(env.File.FileID),
	)
	if env.File.ReferenceSource() == fileevents.ReferencesBoth {
		d.conflicts.Add(1)
		logger.Warn("notification carried both reference fields; using CrossReferences",
			logging.Alert("reference_conflict"),
			logging.String(logging.FieldErrorHint, "upgrade Shoko Server so only one reference field is sent"),
			logging.String(logging.FieldImpact, "legacy CrossRefs values ignored"),
		)
	}

	if err := d.store.Apply(ctx, env); err != nil {
		return fmt.Errorf("record %s for file %d: %w", env.Kind, env.File.FileID, err)
	}
	logger.Debug("file notification recorded",
		logging.String("relative_path", env.File.RelativePath()),
		logging.Int("cross_references", len(env.File.CrossReferences)),
		logging.String("shoko_episodes", joinIDs(env.File.EpisodeIDs())),
		logging.String("reference_source", string(env.File.ReferenceSource())),
	)

	updates := d.mapper.UpdatesFor(env)
	if len(updates) == 0 {
		return nil
	}
	if err := d.notifier.MediaUpdated(ctx, updates); err != nil {
		logging.WarnWithContext(logger, "media server notification failed", "library_notify_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check jellyfin.url and jellyfin.api_key"),
			logging.String(logging.FieldImpact, "library will pick up the change on its next scan"),
		)
	}
	return nil
}

// SeasonSettings derives the resolver settings from cfg.
func SeasonSettings(cfg *config.Config) season.Settings {
	if cfg == nil {
		return season.Settings{}
	}
	return season.Settings{AddAniDBID: cfg.Metadata.AddAniDBID}
}

// ApplyConfig updates the settings that take effect without a restart.
func (d *Daemon) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	settings := SeasonSettings(cfg)
	d.resolver.SetSettings(settings)
	d.logger.Info("season settings reloaded",
		logging.String(logging.FieldEventType, "settings_reloaded"),
		logging.Bool("add_anidb_id", settings.AddAniDBID),
	)
}

// ResolveSeason resolves one season request, filling locale defaults from config.
func (d *Daemon) ResolveSeason(ctx context.Context, req season.Request) season.Result {
	if strings.TrimSpace(req.MetadataLanguage) == "" {
		req.MetadataLanguage = d.cfg.Metadata.Language
	}
	if strings.TrimSpace(req.MetadataCountryCode) == "" {
		req.MetadataCountryCode = d.cfg.Metadata.CountryCode
	}
	return d.resolver.Resolve(ctx, req)
}

// Files returns tracked files, optionally only those linked to a Shoko episode.
func (d *Daemon) Files(ctx context.Context, shokoEpisodeID int) ([]filestore.File, error) {
	if shokoEpisodeID > 0 {
		return d.store.FilesForEpisode(ctx, shokoEpisodeID)
	}
	return d.store.List(ctx)
}

// File returns one tracked file.
func (d *Daemon) File(ctx context.Context, fileID int) (*filestore.File, error) {
	return d.store.Get(ctx, fileID)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:            d.running.Load(),
		StartedAt:          d.startedAt.Load(),
		FeedEnabled:        d.feed != nil,
		ReferenceConflicts: d.conflicts.Load(),
		Active:             d.tracker.Active(),
		StoreDBPath:        d.store.Path(),
		LockFilePath:       d.lockPath,
	}
	if d.feed != nil {
		status.FeedConnected = d.feed.Connected()
		status.Notifications = d.feed.Received()
	}
	if count, err := d.store.Count(ctx); err == nil {
		status.TrackedFiles = count
	} else {
		d.logger.Warn("count tracked files failed", logging.Error(err))
	}
	return status
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
