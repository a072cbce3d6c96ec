package services

import "context"

type contextKey string

const (
	seriesIDKey     contextKey = "series_id"
	seasonNumberKey contextKey = "season_number"
	requestIDKey    contextKey = "request_id"
)

// WithSeriesID annotates context with the Shoko series identifier.
func WithSeriesID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, seriesIDKey, id)
}

// SeriesIDFromContext extracts the Shoko series identifier if present.
func SeriesIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(seriesIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSeasonNumber annotates context with the library season number.
func WithSeasonNumber(ctx context.Context, number int) context.Context {
	return context.WithValue(ctx, seasonNumberKey, number)
}

// SeasonNumberFromContext returns the library season number if present.
func SeasonNumberFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(seasonNumberKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
