// Package state persists the set of fired reminder windows so a process
// restart inside a lead window does not duplicate reminders.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FiredRecord records that the reminder window for an event has fired.
type FiredRecord struct {
	EventID string    `json:"event_id"`
	FireAt  time.Time `json:"fire_at"`
	FiredAt time.Time `json:"fired_at"`
}

// Journal is a mutex-guarded JSON file of fired windows, keyed by event id.
// A nil Journal is valid and performs no persistence.
type Journal struct {
	mu   sync.Mutex
	path string
}

const journalFileName = "notifyd_windows.json"

// NewJournal opens (or prepares) a journal under dir. Empty dir returns nil,
// disabling persistence.
func NewJournal(dir string) *Journal {
	if dir == "" {
		return nil
	}
	return &Journal{path: filepath.Join(dir, journalFileName)}
}

// loadUnlocked reads the journal file. Caller must hold the mutex.
func (j *Journal) loadUnlocked() (map[string]FiredRecord, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]FiredRecord), nil
		}
		return nil, fmt.Errorf("load window journal: %w", err)
	}
	out := make(map[string]FiredRecord)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal window journal: %w", err)
	}
	return out, nil
}

// saveUnlocked writes the journal file. Caller must hold the mutex.
func (j *Journal) saveUnlocked(m map[string]FiredRecord) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal window journal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}
	if err := os.WriteFile(j.path, b, 0o640); err != nil {
		return fmt.Errorf("write window journal: %w", err)
	}
	return nil
}

// MarkFired records a fired window. The whole read-modify-write cycle runs
// under the mutex to avoid lost updates.
func (j *Journal) MarkFired(r FiredRecord) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	m, err := j.loadUnlocked()
	if err != nil {
		return err
	}
	m[r.EventID] = r
	return j.saveUnlocked(m)
}

// Remove drops the record for an event (canceled events).
func (j *Journal) Remove(eventID string) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	m, err := j.loadUnlocked()
	if err != nil {
		return err
	}
	delete(m, eventID)
	return j.saveUnlocked(m)
}

// All returns every persisted fired record.
func (j *Journal) All() (map[string]FiredRecord, error) {
	if j == nil {
		return map[string]FiredRecord{}, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.loadUnlocked()
}
