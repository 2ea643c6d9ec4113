// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package forward

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/uradlab/urad-ingester/lib/reading"
	"github.com/uradlab/urad-ingester/lib/testutil"
)

// recordingPublisher stores payloads and optionally blocks each publish
// until released.
type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	fail     error
	started  chan struct{}
	release  chan struct{}
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.release != nil {
		<-p.release
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) published() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.payloads...)
}

func entryAt(milliseconds int64) reading.Entry {
	return reading.Entry{Timestamp: milliseconds, Reading: reading.Reading{Temperature: 20.5, CO2: 410}}
}

func startForwarder(t *testing.T, forwarder *Forwarder) (context.CancelFunc, <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		forwarder.Run(ctx)
	}()
	t.Cleanup(cancel)
	return cancel, done
}

func TestForwarderPublishesJSON(t *testing.T) {
	publisher := &recordingPublisher{}
	forwarder := New(Config{Publisher: publisher, Logger: testutil.DiscardLogger()})

	for i := int64(1); i <= 3; i++ {
		if !forwarder.Enqueue(entryAt(i)) {
			t.Fatalf("Enqueue(%d) dropped", i)
		}
	}
	cancel, done := startForwarder(t, forwarder)
	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "forwarder did not stop")

	payloads := publisher.published()
	if len(payloads) != 3 {
		t.Fatalf("published %d payloads, want 3", len(payloads))
	}
	for i, payload := range payloads {
		var decoded reading.Entry
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("payload %d is not JSON: %v", i, err)
		}
		if decoded != entryAt(int64(i+1)) {
			t.Errorf("payload %d = %+v, want %+v", i, decoded, entryAt(int64(i+1)))
		}
	}
	if stats := forwarder.Stats(); stats.Published != 3 || stats.Failed != 0 || stats.Dropped != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestForwarderDropsWhenFull(t *testing.T) {
	publisher := &recordingPublisher{}
	forwarder := New(Config{Publisher: publisher, QueueSize: 2, Logger: testutil.DiscardLogger()})

	results := []bool{
		forwarder.Enqueue(entryAt(1)),
		forwarder.Enqueue(entryAt(2)),
		forwarder.Enqueue(entryAt(3)),
	}
	if !results[0] || !results[1] || results[2] {
		t.Fatalf("Enqueue results = %v, want [true true false]", results)
	}
	if got := forwarder.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestForwarderCountsFailures(t *testing.T) {
	publisher := &recordingPublisher{fail: errors.New("broker unavailable")}
	forwarder := New(Config{Publisher: publisher, Logger: testutil.DiscardLogger()})

	forwarder.Enqueue(entryAt(1))
	forwarder.Enqueue(entryAt(2))
	cancel, done := startForwarder(t, forwarder)
	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "forwarder did not stop")

	if stats := forwarder.Stats(); stats.Failed != 2 || stats.Published != 0 {
		t.Errorf("Stats() = %+v, want 2 failed", stats)
	}
}

func TestForwarderPublishSurvivesCancellation(t *testing.T) {
	publisher := &recordingPublisher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	forwarder := New(Config{Publisher: publisher, Logger: testutil.DiscardLogger()})
	cancel, done := startForwarder(t, forwarder)

	forwarder.Enqueue(entryAt(1))
	testutil.RequireReceive(t, publisher.started, 5*time.Second, "publish did not start")

	cancel()
	testutil.RequireNotClosed(t, done, "forwarder returned with a publish in flight")
	close(publisher.release)
	testutil.RequireClosed(t, done, 5*time.Second, "forwarder did not stop")

	if got := len(publisher.published()); got != 1 {
		t.Errorf("published %d payloads, want the in-flight one", got)
	}
}

func TestNewForwarderValidation(t *testing.T) {
	for name, config := range map[string]Config{
		"missing publisher": {Logger: testutil.DiscardLogger()},
		"missing logger":    {Publisher: &recordingPublisher{}},
		"negative queue":    {Publisher: &recordingPublisher{}, Logger: testutil.DiscardLogger(), QueueSize: -1},
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("New did not panic")
				}
			}()
			New(config)
		})
	}
}

func TestDefaultQueueSize(t *testing.T) {
	forwarder := New(Config{Publisher: &recordingPublisher{}, Logger: testutil.DiscardLogger()})
	if got := cap(forwarder.queue); got != DefaultQueueSize {
		t.Errorf("queue capacity = %d, want %d", got, DefaultQueueSize)
	}
}
