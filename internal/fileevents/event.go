package fileevents

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"shokofin/internal/services"
)

// Wire keys for the two cross-reference fields.
const (
	currentReferencesKey = "CrossReferences"
	legacyReferencesKey  = "CrossRefs"
)

// ReferenceSource records which wire key supplied the cross-references.
type ReferenceSource string

const (
	ReferencesAbsent  ReferenceSource = "none"
	ReferencesCurrent ReferenceSource = "current"
	ReferencesLegacy  ReferenceSource = "legacy"
	// ReferencesBoth means both keys were present. The current key wins.
	ReferencesBoth ReferenceSource = "both"
)

// CrossReference links a file to one catalog episode. Entries are passed
// through unvalidated.
type CrossReference struct {
	AniDBEpisodeID int  `json:"EpisodeID"`
	AniDBAnimeID   int  `json:"AnimeID"`
	ShokoEpisodeID int  `json:"ShokoEpisodeID,omitempty"`
	ShokoSeriesID  int  `json:"ShokoSeriesID,omitempty"`
	Percentage     *int `json:"Percentage,omitempty"`
}

// FileEvent describes one file in a change notification. It must not be
// copied after first use.
type FileEvent struct {
	FileID         int
	FileLocationID *int
	ImportFolderID int
	// InternalPath is the path relative to the import folder exactly as sent,
	// forward-slash separated with no leading separator.
	InternalPath       string
	HasCrossReferences bool
	CrossReferences    []CrossReference

	source       ReferenceSource
	pathOnce     sync.Once
	relativePath string
	computations atomic.Int64
}

type fileEventWire struct {
	FileID         int    `json:"FileID"`
	FileLocationID *int   `json:"FileLocationID"`
	ImportFolderID int    `json:"ImportFolderID"`
	RelativePath   string `json:"RelativePath"`
}

// UnmarshalJSON decodes the wire form. When both reference keys are present
// the current key wins regardless of their order in the payload.
func (e *FileEvent) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var wire fileEventWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	e.FileID = wire.FileID
	e.FileLocationID = wire.FileLocationID
	e.ImportFolderID = wire.ImportFolderID
	e.InternalPath = wire.RelativePath

	current, hasCurrent := fields[currentReferencesKey]
	legacy, hasLegacy := fields[legacyReferencesKey]
	var raw json.RawMessage
	switch {
	case hasCurrent && hasLegacy:
		e.source, raw = ReferencesBoth, current
	case hasCurrent:
		e.source, raw = ReferencesCurrent, current
	case hasLegacy:
		e.source, raw = ReferencesLegacy, legacy
	default:
		e.source = ReferencesAbsent
	}

	e.HasCrossReferences = e.source != ReferencesAbsent
	e.CrossReferences = []CrossReference{}
	if len(raw) > 0 {
		var refs []CrossReference
		if err := json.Unmarshal(raw, &refs); err != nil {
			return fmt.Errorf("decode cross references: %w", err)
		}
		if refs != nil {
			e.CrossReferences = refs
		}
	}
	return nil
}

type fileEventOut struct {
	fileEventWire
	CrossReferences *[]CrossReference `json:"CrossReferences,omitempty"`
}

// wireForm leaves CrossReferences nil when the event carried no reference
// key so that an explicit empty list survives a round trip.
func (e *FileEvent) wireForm() fileEventOut {
	out := fileEventOut{
		fileEventWire: fileEventWire{
			FileID:         e.FileID,
			FileLocationID: e.FileLocationID,
			ImportFolderID: e.ImportFolderID,
			RelativePath:   e.InternalPath,
		},
	}
	if e.HasCrossReferences {
		refs := e.CrossReferences
		if refs == nil {
			refs = []CrossReference{}
		}
		out.CrossReferences = &refs
	}
	return out
}

// MarshalJSON encodes the event in the current wire format.
func (e *FileEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wireForm())
}

// ReferenceSource reports which wire key supplied CrossReferences.
func (e *FileEvent) ReferenceSource() ReferenceSource {
	if e.source == "" {
		if e.HasCrossReferences {
			return ReferencesCurrent
		}
		return ReferencesAbsent
	}
	return e.source
}

// RelativePath returns the host-native form of InternalPath: a leading
// separator followed by the path with every '/' and '\' replaced by the
// platform separator. The value is derived once and cached for the lifetime of
// the event.
func (e *FileEvent) RelativePath() string {
	e.pathOnce.Do(func() {
		e.computations.Add(1)
		e.relativePath = nativePath(e.InternalPath, os.PathSeparator)
	})
	return e.relativePath
}

// PathComputations reports how many times RelativePath derived its value.
func (e *FileEvent) PathComputations() int64 {
	return e.computations.Load()
}

// EpisodeIDs returns the distinct Shoko episode ids the file is linked to.
func (e *FileEvent) EpisodeIDs() []int {
	seen := make(map[int]struct{}, len(e.CrossReferences))
	ids := make([]int, 0, len(e.CrossReferences))
	for _, ref := range e.CrossReferences {
		if ref.ShokoEpisodeID == 0 {
			continue
		}
		if _, dup := seen[ref.ShokoEpisodeID]; dup {
			continue
		}
		seen[ref.ShokoEpisodeID] = struct{}{}
		ids = append(ids, ref.ShokoEpisodeID)
	}
	return ids
}

func nativePath(internal string, separator rune) string {
	sep := string(separator)
	replaced := strings.NewReplacer("/", sep, `\`, sep).Replace(internal)
	return sep + replaced
}

func decodeError(kind Kind, err error) error {
	return services.Wrap(services.ErrValidation, "fileevents", "decode", string(kind)+" payload", err)
}
