package fileevents

import (
	"encoding/json"
	"fmt"

	"shokofin/internal/services"
)

// Kind names a file notification.
type Kind string

const (
	KindMatched Kind = "file_matched"
	KindDeleted Kind = "file_deleted"
	KindMoved   Kind = "file_moved"
	KindRenamed Kind = "file_renamed"
)

// Kinds lists every supported notification kind.
func Kinds() []Kind {
	return []Kind{KindMatched, KindDeleted, KindMoved, KindRenamed}
}

// ParseKind accepts a kind name.
func ParseKind(value string) (Kind, error) {
	for _, kind := range Kinds() {
		if string(kind) == value {
			return kind, nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "fileevents", "parse kind", fmt.Sprintf("unknown event kind %q", value), nil)
}

// Envelope is a decoded notification. File is always set; Moved is set for
// moved and renamed notifications and shares its FileEvent with File.
type Envelope struct {
	Kind  Kind
	File  *FileEvent
	Moved *FileMovedEvent
}

// Decode parses a notification payload of the given kind.
func Decode(kind Kind, payload []byte) (*Envelope, error) {
	switch kind {
	case KindMatched, KindDeleted:
		event := &FileEvent{}
		if err := json.Unmarshal(payload, event); err != nil {
			return nil, decodeError(kind, err)
		}
		return &Envelope{Kind: kind, File: event}, nil
	case KindMoved, KindRenamed:
		moved := &FileMovedEvent{}
		if err := json.Unmarshal(payload, moved); err != nil {
			return nil, decodeError(kind, err)
		}
		return &Envelope{Kind: kind, File: &moved.FileEvent, Moved: moved}, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "fileevents", "decode", fmt.Sprintf("unknown event kind %q", kind), nil)
	}
}
