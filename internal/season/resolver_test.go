package season_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"shokofin/internal/catalog"
	"shokofin/internal/season"
	"shokofin/internal/services"
	"shokofin/internal/tracker"
)

type recordedEntry struct {
	level   slog.Level
	message string
	attrs   map[string]string
}

type recordingHandler struct {
	mu      *sync.Mutex
	entries *[]recordedEntry
	attrs   []slog.Attr
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{mu: &sync.Mutex{}, entries: &[]recordedEntry{}}
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string)
	for _, attr := range h.attrs {
		attrs[attr.Key] = attr.Value.String()
	}
	record.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.String()
		return true
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.entries = append(*h.entries, recordedEntry{level: record.Level, message: record.Message, attrs: attrs})
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, entry := range *h.entries {
		if entry.level == level {
			n++
		}
	}
	return n
}

func (h *recordingHandler) first(level slog.Level) (recordedEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, entry := range *h.entries {
		if entry.level == level {
			return entry, true
		}
	}
	return recordedEntry{}, false
}

type stubProvider struct {
	show      *catalog.ShowInfo
	err       error
	block     chan struct{}
	panicWith any
	calls     atomic.Int32
}

func (p *stubProvider) ShowInfoForSeries(_ context.Context, seriesID string) (*catalog.ShowInfo, error) {
	p.calls.Add(1)
	if p.block != nil {
		<-p.block
	}
	if p.panicWith != nil {
		panic(p.panicWith)
	}
	return p.show, p.err
}

func intPtr(v int) *int { return &v }

func seasonTwoShow() *catalog.ShowInfo {
	air := time.Date(2013, 4, 7, 0, 0, 0, 0, time.UTC)
	first := &catalog.SeasonInfo{
		ID:    "CS1",
		Shoko: catalog.ShokoRef{ID: "CS1", Name: "Season One"},
		AniDB: catalog.AniDBInfo{ID: 100},
	}
	second := &catalog.SeasonInfo{
		ID:    "CS2",
		Shoko: catalog.ShokoRef{ID: "CS2", Name: "Season Two"},
		AniDB: catalog.AniDBInfo{
			ID:      9541,
			Titles:  []catalog.Title{{Language: "x-jat", Type: catalog.TitleMain, Value: "Season Two"}},
			AirDate: &air,
			Rating:  &catalog.Rating{Value: 820, MaxValue: 1000},
		},
		Genres:               []string{"Action"},
		Staff:                []catalog.Person{{Name: "Tetsurou Araki", Type: catalog.PersonDirector}},
		HasAlternateEpisodes: true,
	}
	return catalog.NewShowInfo("S1", "G1", "Show", []*catalog.SeasonInfo{second, first})
}

func newResolver(provider catalog.ShowProvider, handler *recordingHandler, tr *tracker.Tracker, settings season.Settings) *season.Resolver {
	return season.NewResolver(provider,
		season.WithLogger(slog.New(handler)),
		season.WithTracker(tr),
		season.WithSettings(settings),
	)
}

func request(index *int, seriesID string) season.Request {
	req := season.Request{
		Name:                "Season Two",
		IndexNumber:         index,
		Path:                "/anime/Show/Season 2",
		MetadataLanguage:    "en",
		MetadataCountryCode: "US",
	}
	if seriesID != "" {
		req.SeriesProviderIDs = map[string]string{season.ProviderShokoSeries: seriesID}
	}
	return req
}

func TestResolveWithoutIndexReturnsEmpty(t *testing.T) {
	handler := newRecordingHandler()
	provider := &stubProvider{show: seasonTwoShow()}
	resolver := newResolver(provider, handler, tracker.New(), season.Settings{})

	result := resolver.Resolve(context.Background(), request(nil, "S1"))
	if !result.Empty() || result.HasMetadata {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if provider.calls.Load() != 0 {
		t.Fatal("expected no catalog lookup")
	}
	if handler.count(slog.LevelWarn) != 0 || handler.count(slog.LevelError) != 0 {
		t.Fatal("expected no warnings or errors")
	}
}

func TestResolveSpecialsSeasonSkipsLookup(t *testing.T) {
	handler := newRecordingHandler()
	provider := &stubProvider{show: seasonTwoShow()}
	resolver := newResolver(provider, handler, tracker.New(), season.Settings{AddAniDBID: true})

	req := request(intPtr(0), "S1")
	req.Name = "Specials"
	result := resolver.Resolve(context.Background(), req)

	if provider.calls.Load() != 0 {
		t.Fatal("expected no catalog lookup for specials")
	}
	if !result.HasMetadata || result.Item == nil {
		t.Fatalf("expected specials metadata, got %+v", result)
	}
	item := result.Item
	if item.IndexNumber != 0 || item.Name != "Specials" {
		t.Fatalf("unexpected specials record: %+v", item)
	}
	if item.SortName != "AA - Specials" || item.ForcedSortName != "AA - Specials" {
		t.Fatalf("unexpected sort names: %q %q", item.SortName, item.ForcedSortName)
	}
	if item.Overview != "" || item.CommunityRating != nil || item.OfficialRating != "" || len(item.ProviderIDs) != 0 {
		t.Fatalf("expected no description, ratings or provider ids: %+v", item)
	}
}

func TestResolveMissingSeriesIDLogsDebug(t *testing.T) {
	handler := newRecordingHandler()
	provider := &stubProvider{show: seasonTwoShow()}
	resolver := newResolver(provider, handler, tracker.New(), season.Settings{})

	result := resolver.Resolve(context.Background(), request(intPtr(2), ""))
	if !result.Empty() {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if provider.calls.Load() != 0 {
		t.Fatal("expected no catalog lookup without series id")
	}
	if handler.count(slog.LevelDebug) != 1 {
		t.Fatalf("expected one debug entry, got %d", handler.count(slog.LevelDebug))
	}
}

func TestResolveScenarioOffsetAndSortKey(t *testing.T) {
	handler := newRecordingHandler()
	tr := tracker.New()
	resolver := newResolver(&stubProvider{show: seasonTwoShow()}, handler, tr, season.Settings{})

	result := resolver.Resolve(context.Background(), request(intPtr(2), "S1"))
	if result.Item == nil || !result.HasMetadata {
		t.Fatalf("expected metadata, got %+v", result)
	}
	item := result.Item
	if item.SortName != "S2 - Season Two" || item.ForcedSortName != "S2 - Season Two" {
		t.Fatalf("unexpected sort names: %q %q", item.SortName, item.ForcedSortName)
	}
	// Offset 1 marks the alternate episodes slot.
	if item.Name != "Season Two (Alternate Episodes)" {
		t.Fatalf("expected alternate title for offset 1, got %q", item.Name)
	}
	if item.IndexNumber != 2 {
		t.Fatalf("unexpected index %d", item.IndexNumber)
	}
	if id, ok := item.ProviderID(season.ProviderShokoSeries); !ok || id != "CS2" {
		t.Fatalf("expected Shoko provider id CS2, got %q %v", id, ok)
	}
	if _, ok := item.ProviderID(season.ProviderAniDB); ok {
		t.Fatal("expected no AniDB id when disabled")
	}
	if item.ProductionYear == nil || *item.ProductionYear != 2013 {
		t.Fatalf("unexpected production year %v", item.ProductionYear)
	}
	if item.CommunityRating == nil || *item.CommunityRating != 8.2 {
		t.Fatalf("unexpected community rating %v", item.CommunityRating)
	}
	if item.OfficialRating != "" {
		t.Fatalf("expected no rating without audience tags, got %q", item.OfficialRating)
	}
	if len(item.ProductionLocations) != 1 || item.ProductionLocations[0] != "Japan" {
		t.Fatalf("unexpected production locations %v", item.ProductionLocations)
	}
	if len(result.People) != 1 || result.People[0].Name != "Tetsurou Araki" {
		t.Fatalf("expected staff to populate people, got %+v", result.People)
	}
	if tr.Len() != 0 {
		t.Fatalf("expected tracker token released, got %d active", tr.Len())
	}

	base := resolver.Resolve(context.Background(), request(intPtr(1), "S1"))
	if base.Item == nil || base.Item.Name != "Season Two" || base.Item.SortName != "S1 - Season Two" {
		t.Fatalf("expected base slot without suffix, got %+v", base.Item)
	}
}

func TestResolveAniDBIDFollowsSettingsAtCallTime(t *testing.T) {
	resolver := newResolver(&stubProvider{show: seasonTwoShow()}, newRecordingHandler(), tracker.New(), season.Settings{})

	result := resolver.Resolve(context.Background(), request(intPtr(2), "S1"))
	if _, ok := result.Item.ProviderID(season.ProviderAniDB); ok {
		t.Fatal("expected no AniDB id before enabling")
	}

	resolver.SetSettings(season.Settings{AddAniDBID: true})
	result = resolver.Resolve(context.Background(), request(intPtr(2), "S1"))
	if id, ok := result.Item.ProviderID(season.ProviderAniDB); !ok || id != "9541" {
		t.Fatalf("expected AniDB id 9541, got %q %v", id, ok)
	}
}

func TestResolveLookupFailuresWarnOnce(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
		index    int
	}{
		{"not found error", &stubProvider{err: services.Wrap(services.ErrNotFound, "shoko", "get series", "series missing", nil)}, 2},
		{"nil show", &stubProvider{}, 2},
		{"season number out of range", &stubProvider{show: seasonTwoShow()}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newRecordingHandler()
			tr := tracker.New()
			resolver := newResolver(tt.provider, handler, tr, season.Settings{})

			result := resolver.Resolve(context.Background(), request(intPtr(tt.index), "S1"))
			if !result.Empty() || result.HasMetadata {
				t.Fatalf("expected empty result, got %+v", result)
			}
			if got := handler.count(slog.LevelWarn); got != 1 {
				t.Fatalf("expected exactly one warning, got %d", got)
			}
			if handler.count(slog.LevelError) != 0 {
				t.Fatal("expected no error entries")
			}
			entry, _ := handler.first(slog.LevelWarn)
			if entry.attrs["series_id"] != "S1" {
				t.Fatalf("expected series id on warning, got %v", entry.attrs)
			}
			if tr.Len() != 0 {
				t.Fatal("expected tracker token released")
			}
		})
	}
}

func TestResolveUnexpectedErrorLogsError(t *testing.T) {
	handler := newRecordingHandler()
	tr := tracker.New()
	resolver := newResolver(&stubProvider{err: errors.New("connection reset")}, handler, tr, season.Settings{})

	result := resolver.Resolve(context.Background(), request(intPtr(2), "S1"))
	if !result.Empty() {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if handler.count(slog.LevelError) != 1 {
		t.Fatalf("expected one error entry, got %d", handler.count(slog.LevelError))
	}
	entry, _ := handler.first(slog.LevelError)
	if entry.attrs["path"] != "/anime/Show/Season 2" || entry.attrs["series_id"] != "S1" || entry.attrs["season_number"] != "2" {
		t.Fatalf("expected full context on error, got %v", entry.attrs)
	}
	if entry.attrs["error_message"] != "connection reset" {
		t.Fatalf("expected underlying message, got %q", entry.attrs["error_message"])
	}
	if tr.Len() != 0 {
		t.Fatal("expected tracker token released")
	}
}

func TestResolveRecoversPanics(t *testing.T) {
	handler := newRecordingHandler()
	tr := tracker.New()
	resolver := newResolver(&stubProvider{panicWith: "boom"}, handler, tr, season.Settings{})

	result := resolver.Resolve(context.Background(), request(intPtr(2), "S1"))
	if !result.Empty() {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if handler.count(slog.LevelError) != 1 {
		t.Fatalf("expected one error entry, got %d", handler.count(slog.LevelError))
	}
	if tr.Len() != 0 {
		t.Fatal("expected tracker token released after panic")
	}
}

func TestResolveReturnsPromptlyOnCancellation(t *testing.T) {
	handler := newRecordingHandler()
	tr := tracker.New()
	provider := &stubProvider{show: seasonTwoShow(), block: make(chan struct{})}
	t.Cleanup(func() { close(provider.block) })
	resolver := newResolver(provider, handler, tr, season.Settings{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan season.Result, 1)
	go func() {
		done <- resolver.Resolve(ctx, request(intPtr(2), "S1"))
	}()
	for provider.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case result := <-done:
		if !result.Empty() {
			t.Fatalf("expected empty result after cancellation, got %+v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("resolver did not return after cancellation")
	}
	if handler.count(slog.LevelWarn) != 0 || handler.count(slog.LevelError) != 0 {
		t.Fatal("expected cancellation to log at debug only")
	}
	if tr.Len() != 0 {
		t.Fatal("expected tracker token released")
	}
}

func TestResolveConcurrentRequests(t *testing.T) {
	tr := tracker.New()
	resolver := newResolver(&stubProvider{show: seasonTwoShow()}, newRecordingHandler(), tr, season.Settings{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			index := 1 + n%2
			result := resolver.Resolve(context.Background(), request(intPtr(index), "S1"))
			if result.Item == nil || result.Item.IndexNumber != index {
				t.Errorf("unexpected result for %d: %+v", index, result)
			}
		}(i)
	}
	wg.Wait()
	if tr.Len() != 0 {
		t.Fatalf("expected all tokens released, got %d", tr.Len())
	}
}

func TestCreateMetadataForSeries(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	builder := season.Builder{Settings: season.Settings{AddAniDBID: true}, Now: func() time.Time { return fixed }}
	show := seasonTwoShow()
	info, _ := show.SeasonByNumber(2)
	seriesID := uuid.New()
	seasonID := uuid.New()

	item := builder.CreateMetadataForSeries(info, 2, 0, season.SeriesRef{
		ID:                           seriesID,
		Name:                         "Show",
		PresentationUniqueKey:        "key-1",
		PreferredMetadataLanguage:    "en",
		PreferredMetadataCountryCode: "US",
	}, seasonID)

	if item.ID != seasonID || !item.IsVirtualItem {
		t.Fatalf("expected attached id and virtual flag, got %+v", item)
	}
	if item.SeriesID != seriesID || item.SeriesName != "Show" || item.SeriesPresentationUniqueKey != "key-1" {
		t.Fatalf("unexpected series linkage: %+v", item)
	}
	if !item.DateModified.Equal(fixed) || !item.DateLastSaved.Equal(fixed) {
		t.Fatalf("unexpected timestamps: %v %v", item.DateModified, item.DateLastSaved)
	}
	if item.SortName != "S2 - Season Two" || item.Name != "Season Two" {
		t.Fatalf("unexpected shared fields: %+v", item)
	}
	if id, ok := item.ProviderID(season.ProviderAniDB); !ok || id != "9541" {
		t.Fatalf("expected AniDB id, got %q %v", id, ok)
	}

	standalone := builder.CreateMetadata(info, 2, 0, "en", "US")
	if standalone.ID != uuid.Nil || standalone.IsVirtualItem || !standalone.DateModified.IsZero() {
		t.Fatalf("expected standalone record without linkage, got %+v", standalone)
	}
}

func TestResolveAttachesToRequestedSeries(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	resolver := season.NewResolver(&stubProvider{show: seasonTwoShow()},
		season.WithLogger(slog.New(newRecordingHandler())),
		season.WithClock(func() time.Time { return fixed }),
	)
	seriesID := uuid.New()
	seasonID := uuid.New()
	req := request(intPtr(2), "S1")
	req.Series = &season.SeriesRef{ID: seriesID, Name: "Show", PresentationUniqueKey: "key-1"}
	req.SeasonID = seasonID

	result := resolver.Resolve(context.Background(), req)
	if result.Item == nil {
		t.Fatal("expected metadata")
	}
	item := result.Item
	if item.ID != seasonID || item.SeriesID != seriesID || !item.IsVirtualItem {
		t.Fatalf("expected attached record, got %+v", item)
	}
	if !item.DateModified.Equal(fixed) || item.SeriesPresentationUniqueKey != "key-1" {
		t.Fatalf("unexpected attached fields: %+v", item)
	}

	req.SeasonID = uuid.Nil
	generated := resolver.Resolve(context.Background(), req)
	if generated.Item == nil || generated.Item.ID == uuid.Nil {
		t.Fatalf("expected generated season id, got %+v", generated.Item)
	}

	standalone := resolver.Resolve(context.Background(), request(intPtr(2), "S1"))
	if standalone.Item == nil || standalone.Item.IsVirtualItem || standalone.Item.ID != uuid.Nil {
		t.Fatalf("expected standalone record, got %+v", standalone.Item)
	}
}
