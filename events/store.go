package events

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// File system constants.
const (
	dirPermissions  = 0750
	filePermissions = 0600
	scannerBufSize  = 1024 * 1024 // 1MB buffer for large events
)

// EventStore persists events for later replay and analysis.
type EventStore interface {
	// Append adds an event to the store. Appending an event whose id is
	// already recorded is a no-op, not a double record.
	Append(ctx context.Context, event *Event) error

	// Query returns events matching the filter in append order.
	Query(ctx context.Context, filter *Filter) ([]*Event, error)

	// Close releases any resources held by the store.
	Close() error
}

// storedEvent wraps an Event with a store-assigned sequence for serialization.
type storedEvent struct {
	Sequence int64  `json:"seq"`
	Event    *Event `json:"event"`
}

// FileEventStore implements EventStore using JSON Lines files.
// Each run is stored in a separate file for efficient streaming; a single
// mutex serializes writers so concurrent runs never interleave inside one
// record.
type FileEventStore struct {
	dir      string
	mu       sync.Mutex
	files    map[string]*os.File
	seen     map[string]map[string]bool // run id -> event ids already appended
	sequence atomic.Int64
}

// NewFileEventStore creates a file-based event store rooted at dir.
func NewFileEventStore(dir string) (*FileEventStore, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create event store directory: %w", err)
	}
	return &FileEventStore{
		dir:   dir,
		files: make(map[string]*os.File),
		seen:  make(map[string]map[string]bool),
	}, nil
}

// Append adds an event to the store.
func (s *FileEventStore) Append(ctx context.Context, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.RunID == "" {
		return fmt.Errorf("event has no run ID")
	}
	if event.ID == "" {
		return fmt.Errorf("event has no ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.seen[event.RunID]
	if !ok {
		var err error
		// A run file may predate this store instance; dedupe against what
		// is already on disk, not just what this instance appended.
		ids, err = s.loadSeen(event.RunID)
		if err != nil {
			return err
		}
		s.seen[event.RunID] = ids
	}
	if ids[event.ID] {
		return nil // already recorded; retry-safe no-op
	}

	file, err := s.file(event.RunID)
	if err != nil {
		return err
	}

	stored := storedEvent{
		Sequence: s.sequence.Add(1),
		Event:    event,
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	ids[event.ID] = true
	return nil
}

// loadSeen collects the event ids already recorded in a run's file, so an
// append of a previously recorded id stays a no-op across store instances.
// Callers must hold the mutex.
func (s *FileEventStore) loadSeen(runID string) (map[string]bool, error) {
	ids := make(map[string]bool)

	f, err := os.Open(filepath.Join(s.dir, runID+".jsonl"))
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return nil, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, scannerBufSize), scannerBufSize)
	for scanner.Scan() {
		var stored storedEvent
		if err := json.Unmarshal(scanner.Bytes(), &stored); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		if stored.Event != nil {
			ids[stored.Event.ID] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return ids, nil
}

// file returns the open JSONL file for a run, creating it on first use.
// Callers must hold the mutex.
func (s *FileEventStore) file(runID string) (*os.File, error) {
	if f, ok := s.files[runID]; ok {
		return f, nil
	}
	path := filepath.Join(s.dir, runID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("open event file: %w", err)
	}
	s.files[runID] = f
	return f, nil
}

// Query returns events matching the filter in append order.
func (s *FileEventStore) Query(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil || filter.RunID == "" {
		return nil, fmt.Errorf("query requires a run ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, filter.RunID+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	var out []*Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, scannerBufSize), scannerBufSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var stored storedEvent
		if err := json.Unmarshal(scanner.Bytes(), &stored); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		if filter.Matches(stored.Event) {
			out = append(out, stored.Event)
			if filter.Limit > 0 && len(out) >= filter.Limit {
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return out, nil
}

// Close closes all open run files.
func (s *FileEventStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for runID, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.files, runID)
	}
	return firstErr
}
