package signalr

import (
	"bytes"
	"encoding/json"
	"fmt"

	"shokofin/internal/fileevents"
)

// recordSeparator terminates every JSON hub protocol message.
const recordSeparator byte = 0x1e

const (
	messageInvocation = 1
	messagePing       = 6
	messageClose      = 7
)

// Feed targets published by Shoko for file notifications.
const (
	TargetFileMatched = "ShokoEvent:FileMatched"
	TargetFileDeleted = "ShokoEvent:FileDeleted"
	TargetFileMoved   = "ShokoEvent:FileMoved"
	TargetFileRenamed = "ShokoEvent:FileRenamed"
)

var targetKinds = map[string]fileevents.Kind{
	TargetFileMatched: fileevents.KindMatched,
	TargetFileDeleted: fileevents.KindDeleted,
	TargetFileMoved:   fileevents.KindMoved,
	TargetFileRenamed: fileevents.KindRenamed,
}

// KindForTarget maps a hub target to a notification kind.
func KindForTarget(target string) (fileevents.Kind, bool) {
	kind, ok := targetKinds[target]
	return kind, ok
}

type handshakeRequest struct {
	Protocol string `json:"protocol"`
	Version  int    `json:"version"`
}

type handshakeResponse struct {
	Error string `json:"error,omitempty"`
}

type message struct {
	Type      int               `json:"type"`
	Target    string            `json:"target,omitempty"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func encodeRecord(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(payload, recordSeparator), nil
}

// splitRecords returns the non-empty records in one websocket frame.
func splitRecords(frame []byte) [][]byte {
	parts := bytes.Split(frame, []byte{recordSeparator})
	records := make([][]byte, 0, len(parts))
	for _, part := range parts {
		if len(bytes.TrimSpace(part)) == 0 {
			continue
		}
		records = append(records, part)
	}
	return records
}

func parseMessage(record []byte) (message, error) {
	var msg message
	if err := json.Unmarshal(record, &msg); err != nil {
		return message{}, fmt.Errorf("decode hub message: %w", err)
	}
	return msg, nil
}
