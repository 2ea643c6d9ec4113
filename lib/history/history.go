// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package history holds the collector's in-memory, append-only record
// of readings.
//
// The store has a single writer (the poller) and any number of readers
// (HTTP requests). Readers take a snapshot: a copy of the sequence as
// it stood at the moment of the call, so encoding a response never
// holds the lock and never observes a partially appended entry.
//
// Nothing is evicted and nothing is persisted. The history lives and
// dies with the process.
package history

import (
	"sync"

	"github.com/uradlab/urad-ingester/lib/reading"
)

// Store is an append-only, chronologically ordered sequence of
// entries. The zero value is not usable; call New.
//
// Thread-safe: all methods may be called concurrently.
type Store struct {
	mu      sync.RWMutex
	entries []reading.Entry
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make([]reading.Entry, 0, 64)}
}

// Append adds entry to the end of the history.
func (s *Store) Append(entry reading.Entry) {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
}

// Snapshot returns a copy of the full history in insertion order. The
// result is never nil, so an empty history encodes as a JSON array.
func (s *Store) Snapshot() []reading.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]reading.Entry, len(s.entries))
	copy(snapshot, s.entries)
	return snapshot
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Last returns the most recent entry and true, or false if the history
// is empty.
func (s *Store) Last() (reading.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return reading.Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}
