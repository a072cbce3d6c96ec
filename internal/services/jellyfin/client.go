package jellyfin

import (
	"context"
	"path/filepath"
	"strings"

	"shokofin/internal/config"
	"shokofin/internal/fileevents"
)

// UpdateType mirrors the change kinds understood by Jellyfin.
type UpdateType string

const (
	UpdateCreated  UpdateType = "Created"
	UpdateModified UpdateType = "Modified"
	UpdateDeleted  UpdateType = "Deleted"
)

// MediaUpdate is one changed library path.
type MediaUpdate struct {
	Path       string     `json:"Path"`
	UpdateType UpdateType `json:"UpdateType"`
}

// Notifier reports library changes to the media server.
type Notifier interface {
	MediaUpdated(ctx context.Context, updates []MediaUpdate) error
}

// NopNotifier discards updates.
type NopNotifier struct{}

// MediaUpdated implements Notifier.
func (NopNotifier) MediaUpdated(context.Context, []MediaUpdate) error { return nil }

// PathMapper resolves import folder relative paths to host paths.
type PathMapper struct {
	cfg *config.Config
}

// NewPathMapper builds a mapper over the configured import folders.
func NewPathMapper(cfg *config.Config) PathMapper {
	return PathMapper{cfg: cfg}
}

// LocalPath joins the mapped import folder root with an internal path.
func (m PathMapper) LocalPath(importFolderID int, internalPath string) (string, bool) {
	if m.cfg == nil {
		return "", false
	}
	root, ok := m.cfg.ImportFolderPath(importFolderID)
	if !ok || strings.TrimSpace(internalPath) == "" {
		return "", false
	}
	cleaned := strings.ReplaceAll(internalPath, `\`, "/")
	cleaned = strings.TrimLeft(cleaned, "/")
	return filepath.Join(root, filepath.FromSlash(cleaned)), true
}

// UpdatesFor derives the library updates implied by a notification. Paths in
// unmapped import folders are skipped.
func (m PathMapper) UpdatesFor(env *fileevents.Envelope) []MediaUpdate {
	if env == nil || env.File == nil {
		return nil
	}
	var updates []MediaUpdate
	add := func(folder int, internal string, kind UpdateType) {
		if local, ok := m.LocalPath(folder, internal); ok {
			updates = append(updates, MediaUpdate{Path: local, UpdateType: kind})
		}
	}
	switch env.Kind {
	case fileevents.KindMatched:
		add(env.File.ImportFolderID, env.File.InternalPath, UpdateModified)
	case fileevents.KindDeleted:
		add(env.File.ImportFolderID, env.File.InternalPath, UpdateDeleted)
	case fileevents.KindMoved, fileevents.KindRenamed:
		if env.Moved != nil && env.Moved.PreviousInternalPath != "" {
			add(env.Moved.PreviousImportFolderID, env.Moved.PreviousInternalPath, UpdateDeleted)
		}
		add(env.File.ImportFolderID, env.File.InternalPath, UpdateCreated)
	}
	return updates
}
