package fileevents

import (
	"encoding/json"
	"os"
	"path"
	"sync"
)

// FileMovedEvent is a FileEvent that also carries where the file used to be.
// Renames are reported the same way with the previous folder unchanged.
type FileMovedEvent struct {
	FileEvent
	PreviousImportFolderID int
	// PreviousInternalPath uses the same form as InternalPath.
	PreviousInternalPath string

	previousOnce sync.Once
	previousPath string
}

type movedWire struct {
	PreviousImportFolderID *int   `json:"PreviousImportFolderID"`
	PreviousRelativePath   string `json:"PreviousRelativePath"`
	FileName               string `json:"FileName"`
	PreviousFileName       string `json:"PreviousFileName"`
}

// UnmarshalJSON decodes moved and renamed payloads. A rename payload names the
// previous file instead of the previous path; the previous path is rebuilt in
// the current directory.
func (m *FileMovedEvent) UnmarshalJSON(data []byte) error {
	if err := m.FileEvent.UnmarshalJSON(data); err != nil {
		return err
	}
	var wire movedWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.PreviousImportFolderID = m.ImportFolderID
	if wire.PreviousImportFolderID != nil {
		m.PreviousImportFolderID = *wire.PreviousImportFolderID
	}
	m.PreviousInternalPath = wire.PreviousRelativePath
	if m.PreviousInternalPath == "" && wire.PreviousFileName != "" {
		dir := path.Dir(normalizeSlashes(m.InternalPath))
		if dir == "." {
			m.PreviousInternalPath = wire.PreviousFileName
		} else {
			m.PreviousInternalPath = dir + "/" + wire.PreviousFileName
		}
	}
	return nil
}

// MarshalJSON encodes the event with its previous location.
func (m *FileMovedEvent) MarshalJSON() ([]byte, error) {
	previousFolder := m.PreviousImportFolderID
	return json.Marshal(struct {
		fileEventOut
		PreviousImportFolderID *int   `json:"PreviousImportFolderID"`
		PreviousRelativePath   string `json:"PreviousRelativePath"`
	}{
		fileEventOut:           m.wireForm(),
		PreviousImportFolderID: &previousFolder,
		PreviousRelativePath:   m.PreviousInternalPath,
	})
}

// PreviousRelativePath is the host-native form of PreviousInternalPath,
// derived once like RelativePath.
func (m *FileMovedEvent) PreviousRelativePath() string {
	m.previousOnce.Do(func() {
		m.previousPath = nativePath(m.PreviousInternalPath, os.PathSeparator)
	})
	return m.previousPath
}

func normalizeSlashes(value string) string {
	out := []byte(value)
	for i := range out {
		if out[i] == '\\' {
			out[i] = '/'
		}
	}
	return string(out)
}
