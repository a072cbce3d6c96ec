package logging

import (
	"context"
	"log/slog"

	"shokofin/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSeriesID is the standardized structured logging key for Shoko series identifiers.
	FieldSeriesID = "series_id"
	// FieldSeasonNumber is the standardized structured logging key for library season numbers.
	FieldSeasonNumber = "season_number"
	// FieldFileID is the standardized structured logging key for Shoko file identifiers.
	FieldFileID = "file_id"
	// FieldEventType classifies a log line so operators can filter by occurrence.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator-facing next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.SeriesIDFromContext(ctx); ok {
		fields = append(fields, SeriesID(id))
	}
	if number, ok := services.SeasonNumberFromContext(ctx); ok {
		fields = append(fields, SeasonNumber(number))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}
