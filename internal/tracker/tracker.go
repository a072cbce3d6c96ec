// Package tracker records in-flight operations so the daemon can report what
// it is currently working on.
package tracker

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry describes one in-flight operation.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	StartedAt   time.Time `json:"started_at"`
}

// Tracker is safe for concurrent use. The zero value is ready to use.
type Tracker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]Entry
	now     func() time.Time
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{}
}

// Add registers an operation and returns its token.
func (t *Tracker) Add(description string) uuid.UUID {
	id := uuid.New()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries == nil {
		t.entries = make(map[uuid.UUID]Entry)
	}
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	t.entries[id] = Entry{ID: id, Description: description, StartedAt: now().UTC()}
	return id
}

// Remove releases a token. Unknown tokens are ignored.
func (t *Tracker) Remove(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Track registers an operation and returns the function that releases it.
// The release function is safe to call more than once.
func (t *Tracker) Track(description string) func() {
	if t == nil {
		return func() {}
	}
	id := t.Add(description)
	var once sync.Once
	return func() {
		once.Do(func() { t.Remove(id) })
	}
}

// Active returns the in-flight operations, oldest first.
func (t *Tracker) Active() []Entry {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	out := make([]Entry, 0, len(t.entries))
	for _, entry := range t.entries {
		out = append(out, entry)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Len returns the number of in-flight operations.
func (t *Tracker) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
