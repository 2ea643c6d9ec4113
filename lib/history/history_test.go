// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/uradlab/urad-ingester/lib/reading"
)

func entryAt(timestamp int64) reading.Entry {
	return reading.Entry{
		Timestamp: timestamp,
		Reading:   reading.Reading{Temperature: float64(timestamp) / 10, CO2: int32(timestamp)},
	}
}

func TestStoreStartsEmpty(t *testing.T) {
	store := New()
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}
	snapshot := store.Snapshot()
	if snapshot == nil {
		t.Fatal("Snapshot() returned nil for empty store")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty snapshot encodes as %s, want []", data)
	}
	if _, ok := store.Last(); ok {
		t.Error("Last() reported an entry on an empty store")
	}
}

func TestStoreAppendPreservesOrder(t *testing.T) {
	store := New()
	for i := int64(1); i <= 5; i++ {
		store.Append(entryAt(i))
	}

	snapshot := store.Snapshot()
	if len(snapshot) != 5 {
		t.Fatalf("snapshot has %d entries, want 5", len(snapshot))
	}
	for i, entry := range snapshot {
		if entry != entryAt(int64(i+1)) {
			t.Errorf("entry %d = %+v, want %+v", i, entry, entryAt(int64(i+1)))
		}
	}

	last, ok := store.Last()
	if !ok || last != entryAt(5) {
		t.Errorf("Last() = %+v, %v; want %+v, true", last, ok, entryAt(5))
	}
}

func TestSnapshotIsIsolatedFromLaterAppends(t *testing.T) {
	store := New()
	store.Append(entryAt(1))
	snapshot := store.Snapshot()

	store.Append(entryAt(2))
	snapshot[0].Temperature = -100

	if len(snapshot) != 1 {
		t.Errorf("snapshot grew to %d entries after Append", len(snapshot))
	}
	if got := store.Snapshot()[0]; got != entryAt(1) {
		t.Errorf("mutating a snapshot changed the store: %+v", got)
	}
}

// TestConcurrentSnapshotsSeePrefixes runs one writer against several
// readers. Every snapshot must be a gap-free, duplicate-free prefix of
// the final sequence. Run with -race.
func TestConcurrentSnapshotsSeePrefixes(t *testing.T) {
	const (
		appends = 2000
		readers = 8
	)
	store := New()

	var wg sync.WaitGroup
	done := make(chan struct{})
	failures := make(chan string, readers)

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			previous := 0
			for {
				snapshot := store.Snapshot()
				if len(snapshot) < previous {
					failures <- "snapshot shrank"
					return
				}
				previous = len(snapshot)
				for i, entry := range snapshot {
					if entry != entryAt(int64(i+1)) {
						failures <- "snapshot is not a prefix of the append sequence"
						return
					}
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	for i := int64(1); i <= appends; i++ {
		store.Append(entryAt(i))
	}
	close(done)
	wg.Wait()
	close(failures)

	for failure := range failures {
		t.Error(failure)
	}
	if store.Len() != appends {
		t.Errorf("Len() = %d, want %d", store.Len(), appends)
	}
}
