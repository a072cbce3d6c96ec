package filestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shokofin/internal/fileevents"
	"shokofin/internal/services"
)

// File is a tracked file and its episode links.
type File struct {
	FileID             int                         `json:"file_id"`
	FileLocationID     *int                        `json:"file_location_id,omitempty"`
	ImportFolderID     int                         `json:"import_folder_id"`
	RelativePath       string                      `json:"relative_path"`
	HasCrossReferences bool                        `json:"has_cross_references"`
	ReferenceSource    fileevents.ReferenceSource  `json:"reference_source"`
	LastEvent          fileevents.Kind             `json:"last_event"`
	CrossReferences    []fileevents.CrossReference `json:"cross_references"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

const fileColumns = "file_id, file_location_id, import_folder_id, relative_path, has_cross_references, reference_source, last_event, created_at, updated_at"

// Upsert records the file described by event. Cross-references are replaced
// only when the event carried reference data.
func (s *Store) Upsert(ctx context.Context, kind fileevents.Kind, event *fileevents.FileEvent) error {
	if event == nil {
		return services.Wrap(services.ErrValidation, "filestore", "upsert", "event required", nil)
	}
	now := s.timestamp()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := upsertFile(ctx, tx, kind, event, event.ImportFolderID, event.InternalPath, now); err != nil {
			return err
		}
		if !event.HasCrossReferences {
			return nil
		}
		return replaceReferences(ctx, tx, event.FileID, event.CrossReferences)
	})
}

// Move records a moved or renamed file at its new location.
func (s *Store) Move(ctx context.Context, kind fileevents.Kind, moved *fileevents.FileMovedEvent) error {
	if moved == nil {
		return services.Wrap(services.ErrValidation, "filestore", "move", "event required", nil)
	}
	return s.Upsert(ctx, kind, &moved.FileEvent)
}

// Delete removes a file and its links. It reports whether the file was known.
func (s *Store) Delete(ctx context.Context, fileID int) (bool, error) {
	var removed bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM cross_references WHERE file_id = ?", fileID); err != nil {
			return fmt.Errorf("delete cross references: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM files WHERE file_id = ?", fileID)
		if err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete file rows: %w", err)
		}
		removed = affected > 0
		return nil
	})
	return removed, err
}

// Get returns one file. Unknown files yield an error wrapping services.ErrNotFound.
func (s *Store) Get(ctx context.Context, fileID int) (*File, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files WHERE file_id = ?", fileID)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "filestore", "get", fmt.Sprintf("file %d", fileID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get file %d: %w", fileID, err)
	}
	refs, err := s.references(ctx, []int{fileID})
	if err != nil {
		return nil, err
	}
	file.CrossReferences = refs[fileID]
	return file, nil
}

// List returns every tracked file ordered by id.
func (s *Store) List(ctx context.Context) ([]File, error) {
	return s.query(ctx, "SELECT "+fileColumns+" FROM files ORDER BY file_id")
}

// FilesForEpisode returns the files linked to a Shoko episode.
func (s *Store) FilesForEpisode(ctx context.Context, shokoEpisodeID int) ([]File, error) {
	return s.query(ctx, "SELECT "+fileColumns+" FROM files WHERE file_id IN "+
		"(SELECT file_id FROM cross_references WHERE shoko_episode_id = ?) ORDER BY file_id", shokoEpisodeID)
}

// Count returns the number of tracked files.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM files").Scan(&count); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return count, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]File, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var files []File
	var ids []int
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
		ids = append(ids, file.FileID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	if len(files) == 0 {
		return []File{}, nil
	}

	refs, err := s.references(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i].CrossReferences = refs[files[i].FileID]
	}
	return files, nil
}

func (s *Store) references(ctx context.Context, fileIDs []int) (map[int][]fileevents.CrossReference, error) {
	out := make(map[int][]fileevents.CrossReference, len(fileIDs))
	for _, id := range fileIDs {
		out[id] = []fileevents.CrossReference{}
	}
	if len(fileIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(fileIDs)), ",")
	args := make([]any, len(fileIDs))
	for i, id := range fileIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT file_id, anidb_episode_id, anidb_anime_id, shoko_episode_id, shoko_series_id, percentage "+
			"FROM cross_references WHERE file_id IN ("+placeholders+") ORDER BY file_id, position", args...)
	if err != nil {
		return nil, fmt.Errorf("query cross references: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			fileID         int
			ref            fileevents.CrossReference
			shokoEpisodeID sql.NullInt64
			shokoSeriesID  sql.NullInt64
			percentage     sql.NullInt64
		)
		if err := rows.Scan(&fileID, &ref.AniDBEpisodeID, &ref.AniDBAnimeID, &shokoEpisodeID, &shokoSeriesID, &percentage); err != nil {
			return nil, fmt.Errorf("scan cross reference: %w", err)
		}
		ref.ShokoEpisodeID = int(shokoEpisodeID.Int64)
		ref.ShokoSeriesID = int(shokoSeriesID.Int64)
		if percentage.Valid {
			value := int(percentage.Int64)
			ref.Percentage = &value
		}
		out[fileID] = append(out[fileID], ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cross references: %w", err)
	}
	return out, nil
}

func upsertFile(ctx context.Context, tx *sql.Tx, kind fileevents.Kind, event *fileevents.FileEvent, importFolderID int, relativePath string, now string) error {
	var locationID any
	if event.FileLocationID != nil {
		locationID = *event.FileLocationID
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO files (`+fileColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(file_id) DO UPDATE SET
    file_location_id = excluded.file_location_id,
    import_folder_id = excluded.import_folder_id,
    relative_path = excluded.relative_path,
    has_cross_references = CASE WHEN excluded.has_cross_references = 1 THEN 1 ELSE files.has_cross_references END,
    reference_source = CASE WHEN excluded.has_cross_references = 1 THEN excluded.reference_source ELSE files.reference_source END,
    last_event = excluded.last_event,
    updated_at = excluded.updated_at`,
		event.FileID, locationID, importFolderID, relativePath,
		boolToInt(event.HasCrossReferences), string(event.ReferenceSource()), string(kind), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert file %d: %w", event.FileID, err)
	}
	return nil
}

func replaceReferences(ctx context.Context, tx *sql.Tx, fileID int, refs []fileevents.CrossReference) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cross_references WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("clear cross references: %w", err)
	}
	for position, ref := range refs {
		var percentage any
		if ref.Percentage != nil {
			percentage = *ref.Percentage
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cross_references (file_id, position, anidb_episode_id, anidb_anime_id, shoko_episode_id, shoko_series_id, percentage)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fileID, position, ref.AniDBEpisodeID, ref.AniDBAnimeID, nullableID(ref.ShokoEpisodeID), nullableID(ref.ShokoSeriesID), percentage,
		); err != nil {
			return fmt.Errorf("insert cross reference: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*File, error) {
	var (
		file       File
		locationID sql.NullInt64
		hasRefs    int
		source     string
		lastEvent  string
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&file.FileID, &locationID, &file.ImportFolderID, &file.RelativePath, &hasRefs, &source, &lastEvent, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if locationID.Valid {
		value := int(locationID.Int64)
		file.FileLocationID = &value
	}
	file.HasCrossReferences = hasRefs == 1
	file.ReferenceSource = fileevents.ReferenceSource(source)
	file.LastEvent = fileevents.Kind(lastEvent)
	file.CreatedAt = parseTime(createdAt)
	file.UpdatedAt = parseTime(updatedAt)
	file.CrossReferences = []fileevents.CrossReference{}
	return &file, nil
}

func (s *Store) timestamp() string {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return now().UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nullableID(id int) any {
	if id == 0 {
		return nil
	}
	return id
}
