package events

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(runID, id string, typ EventType) *Event {
	return &Event{
		ID:        id,
		Type:      typ,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
	}
}

func TestFileStoreAppendAndQuery(t *testing.T) {
	store, err := NewFileEventStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, testEvent("run-1", "e1", EventRunStarted)))
	require.NoError(t, store.Append(ctx, testEvent("run-1", "e2", EventTurnCompleted)))
	require.NoError(t, store.Append(ctx, testEvent("run-2", "e3", EventRunStarted)))

	got, err := store.Query(ctx, &Filter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)

	other, err := store.Query(ctx, &Filter{RunID: "run-2"})
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "e3", other[0].ID)
}

func TestFileStoreAppendIsIdempotent(t *testing.T) {
	store, err := NewFileEventStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	event := testEvent("run-1", "e1", EventTurnCompleted)
	require.NoError(t, store.Append(ctx, event))
	require.NoError(t, store.Append(ctx, event))
	require.NoError(t, store.Append(ctx, event))

	got, err := store.Query(ctx, &Filter{RunID: "run-1"})
	require.NoError(t, err)
	assert.Len(t, got, 1, "re-appending the same event id must not grow the log")
}

func TestFileStoreAppendIsIdempotentAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewFileEventStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, testEvent("run-1", "e1", EventRunStarted)))
	require.NoError(t, store.Append(ctx, testEvent("run-1", "e2", EventTurnCompleted)))
	require.NoError(t, store.Close())

	reopened, err := NewFileEventStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.Append(ctx, testEvent("run-1", "e1", EventRunStarted)))
	require.NoError(t, reopened.Append(ctx, testEvent("run-1", "e3", EventRunCompleted)))

	got, err := reopened.Query(ctx, &Filter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, got, 3, "ids recorded before the reopen stay deduplicated")
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)
	assert.Equal(t, "e3", got[2].ID)
}

func TestFileStoreQueryFilters(t *testing.T) {
	store, err := NewFileEventStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, testEvent("run-1", "e1", EventRunStarted)))
	require.NoError(t, store.Append(ctx, testEvent("run-1", "e2", EventTurnCompleted)))
	require.NoError(t, store.Append(ctx, testEvent("run-1", "e3", EventTurnCompleted)))
	require.NoError(t, store.Append(ctx, testEvent("run-1", "e4", EventRunCompleted)))

	turns, err := store.Query(ctx, &Filter{RunID: "run-1", Types: []EventType{EventTurnCompleted}})
	require.NoError(t, err)
	assert.Len(t, turns, 2)

	limited, err := store.Query(ctx, &Filter{RunID: "run-1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "e1", limited[0].ID)
}

func TestFileStoreQueryMissingRun(t *testing.T) {
	store, err := NewFileEventStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Query(context.Background(), &Filter{RunID: "nope"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStoreRejectsEmptyIdentifiers(t *testing.T) {
	store, err := NewFileEventStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	assert.Error(t, store.Append(ctx, &Event{ID: "e1"}))
	assert.Error(t, store.Append(ctx, &Event{RunID: "run-1"}))

	_, err = store.Query(ctx, nil)
	assert.Error(t, err)
}

func TestFileStoreConcurrentAppends(t *testing.T) {
	store, err := NewFileEventStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	const runs, perRun = 4, 25

	var wg sync.WaitGroup
	for r := 0; r < runs; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			runID := fmt.Sprintf("run-%d", r)
			for i := 0; i < perRun; i++ {
				id := fmt.Sprintf("e%d", i)
				assert.NoError(t, store.Append(ctx, testEvent(runID, id, EventTurnCompleted)))
			}
		}(r)
	}
	wg.Wait()

	for r := 0; r < runs; r++ {
		got, err := store.Query(ctx, &Filter{RunID: fmt.Sprintf("run-%d", r)})
		require.NoError(t, err)
		assert.Len(t, got, perRun)
	}
}

func TestFileStoreWritesOneFilePerRun(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileEventStore(dir)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, testEvent("run-a", "e1", EventRunStarted)))
	require.NoError(t, store.Append(ctx, testEvent("run-b", "e1", EventRunStarted)))

	_, err = os.Stat(filepath.Join(dir, "run-a.jsonl"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "run-b.jsonl"))
	assert.NoError(t, err)
}
