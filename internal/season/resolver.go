package season

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"shokofin/internal/catalog"
	"shokofin/internal/logging"
	"shokofin/internal/services"
	"shokofin/internal/tracker"
)

// Request is a library request for one season's metadata.
type Request struct {
	Name                string            `json:"name"`
	IndexNumber         *int              `json:"index_number"`
	Path                string            `json:"path,omitempty"`
	SeriesProviderIDs   map[string]string `json:"series_provider_ids,omitempty"`
	MetadataLanguage    string            `json:"metadata_language,omitempty"`
	MetadataCountryCode string            `json:"metadata_country_code,omitempty"`
	// Series attaches the result to an existing library series. SeasonID is
	// reused when set; otherwise a new id is assigned.
	Series   *SeriesRef `json:"series,omitempty"`
	SeasonID uuid.UUID  `json:"season_id,omitzero"`
}

// Result is the outcome of a resolution. A nil Item is the empty result.
type Result struct {
	Item        *Season          `json:"item,omitempty"`
	HasMetadata bool             `json:"has_metadata"`
	People      []catalog.Person `json:"people,omitempty"`
}

// Empty reports whether no metadata was produced.
func (r Result) Empty() bool {
	return r.Item == nil
}

// Resolver answers season requests. It is safe for concurrent use.
type Resolver struct {
	provider catalog.ShowProvider
	tracker  *tracker.Tracker
	logger   *slog.Logger
	now      func() time.Time
	settings atomic.Pointer[Settings]
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithTracker registers in-flight resolutions with t.
func WithTracker(t *tracker.Tracker) Option {
	return func(r *Resolver) {
		r.tracker = t
	}
}

// WithSettings sets the initial synthesis settings.
func WithSettings(settings Settings) Option {
	return func(r *Resolver) {
		r.settings.Store(&settings)
	}
}

// WithClock overrides the time source used for attached records.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver constructs a resolver backed by provider.
func NewResolver(provider catalog.ShowProvider, opts ...Option) *Resolver {
	r := &Resolver{provider: provider}
	r.settings.Store(&Settings{})
	for _, opt := range opts {
		opt(r)
	}
	if r.tracker == nil {
		r.tracker = tracker.New()
	}
	r.logger = logging.NewComponentLogger(r.logger, "season")
	return r
}

// SetSettings replaces the synthesis settings. Subsequent resolutions observe
// the new values.
func (r *Resolver) SetSettings(settings Settings) {
	r.settings.Store(&settings)
}

// Settings returns the current synthesis settings.
func (r *Resolver) Settings() Settings {
	return *r.settings.Load()
}

// Builder returns a metadata builder bound to the current settings.
func (r *Resolver) Builder() Builder {
	return Builder{Settings: r.Settings(), Now: r.now}
}

// Resolve produces metadata for the requested season. It never returns an
// error: missing input, lookup failures, cancellation and unexpected faults all
// yield an empty Result and a log entry at the matching level.
func (r *Resolver) Resolve(ctx context.Context, req Request) (result Result) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.IndexNumber == nil {
		r.logger.Debug("season index missing; skipping refresh",
			logging.String("season_name", req.Name),
			logging.String("path", req.Path),
		)
		return Result{}
	}
	seasonNumber := *req.IndexNumber

	if seasonNumber == 0 {
		return Result{Item: specialsSeason(req.Name), HasMetadata: true}
	}

	seriesID := strings.TrimSpace(req.SeriesProviderIDs[ProviderShokoSeries])
	if seriesID == "" {
		r.logger.Debug("unable to refresh season; series id missing",
			logging.SeasonNumber(seasonNumber),
			logging.String("season_name", req.Name),
		)
		return Result{}
	}

	ctx = services.WithSeasonNumber(services.WithSeriesID(ctx, seriesID), seasonNumber)
	logger := logging.WithContext(ctx, r.logger)

	release := r.tracker.Track(fmt.Sprintf("Providing info for Season %q. (Path=%q,Series=%q,Season=%d)", req.Name, req.Path, seriesID, seasonNumber))
	defer release()

	defer func() {
		if recovered := recover(); recovered != nil {
			logging.ErrorWithContext(logger, "season refresh failed unexpectedly", "season_refresh_failed",
				logging.String("path", req.Path),
				logging.String("error_message", fmt.Sprint(recovered)),
				logging.String(logging.FieldErrorHint, "report the series id and season number"),
			)
			result = Result{}
		}
	}()

	show, err := r.lookup(ctx, seriesID)
	if err != nil {
		switch {
		case services.IsCancellation(err):
			logger.Debug("season refresh canceled", logging.Error(err))
		case services.IsLookupFailure(err):
			logging.WarnWithContext(logger, "show info not found for season", "season_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the series exists in Shoko"),
				logging.String(logging.FieldImpact, "season left without metadata"),
			)
		default:
			logging.ErrorWithContext(logger, "season refresh failed", "season_refresh_failed",
				logging.String("path", req.Path),
				logging.String("error_message", err.Error()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check Shoko connectivity and api key"),
			)
		}
		return Result{}
	}
	if show == nil {
		logging.WarnWithContext(logger, "show info not found for season", "season_lookup_failed",
			logging.String(logging.FieldErrorHint, "check the series exists in Shoko"),
			logging.String(logging.FieldImpact, "season left without metadata"),
		)
		return Result{}
	}

	info, ok := show.SeasonByNumber(seasonNumber)
	var baseSeasonNumber int
	if ok {
		baseSeasonNumber, ok = show.BaseSeasonNumberFor(info)
	}
	if !ok {
		logging.WarnWithContext(logger, "series info not found for season", "season_lookup_failed",
			logging.String("group_id", show.GroupID),
			logging.String(logging.FieldErrorHint, "check the show grouping in Shoko"),
			logging.String(logging.FieldImpact, "season left without metadata"),
		)
		return Result{}
	}

	logger.Info("found info for season",
		logging.String("show_name", show.Name),
		logging.String("group_id", show.GroupID),
		logging.String(logging.FieldEventType, "season_resolved"),
	)

	offset := abs(seasonNumber - baseSeasonNumber)
	item := r.synthesize(info, seasonNumber, offset, req)
	people := make([]catalog.Person, 0, len(info.Staff))
	people = append(people, info.Staff...)
	return Result{Item: item, HasMetadata: true, People: people}
}

func (r *Resolver) synthesize(info *catalog.SeasonInfo, seasonNumber, offset int, req Request) *Season {
	builder := r.Builder()
	if req.Series == nil {
		return builder.CreateMetadata(info, seasonNumber, offset, req.MetadataLanguage, req.MetadataCountryCode)
	}
	series := *req.Series
	if series.PreferredMetadataLanguage == "" {
		series.PreferredMetadataLanguage = req.MetadataLanguage
	}
	if series.PreferredMetadataCountryCode == "" {
		series.PreferredMetadataCountryCode = req.MetadataCountryCode
	}
	seasonID := req.SeasonID
	if seasonID == uuid.Nil {
		seasonID = uuid.New()
	}
	return builder.CreateMetadataForSeries(info, seasonNumber, offset, series, seasonID)
}

type lookupResult struct {
	show *catalog.ShowInfo
	err  error
}

// lookup performs the single catalog call and stops waiting once ctx is done.
func (r *Resolver) lookup(ctx context.Context, seriesID string) (*catalog.ShowInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.provider == nil {
		return nil, services.Wrap(services.ErrConfiguration, "season", "lookup", "show provider not configured", nil)
	}
	done := make(chan lookupResult, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				done <- lookupResult{err: fmt.Errorf("show lookup panicked: %v", recovered)}
			}
		}()
		show, err := r.provider.ShowInfoForSeries(ctx, seriesID)
		done <- lookupResult{show: show, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.show, res.err
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
