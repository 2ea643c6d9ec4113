// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package forward

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/uradlab/urad-ingester/lib/reading"
)

// DefaultQueueSize is used when Config.QueueSize is zero.
const DefaultQueueSize = 256

// Publisher delivers one encoded entry. Implementations must honor ctx
// cancellation.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Config configures a Forwarder.
type Config struct {
	// Publisher receives each entry's JSON encoding. Required.
	Publisher Publisher

	// QueueSize bounds the number of entries waiting to be published.
	QueueSize int

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// Stats are cumulative forwarding counters.
type Stats struct {
	Published uint64
	Failed    uint64
	Dropped   uint64
}

// Forwarder queues entries and publishes them from a single goroutine.
type Forwarder struct {
	publisher Publisher
	logger    *slog.Logger
	queue     chan reading.Entry

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a Forwarder. Panics if Publisher or Logger is nil or
// QueueSize is negative.
func New(config Config) *Forwarder {
	if config.Publisher == nil {
		panic("forward.New: Publisher is required")
	}
	if config.Logger == nil {
		panic("forward.New: Logger is required")
	}
	if config.QueueSize < 0 {
		panic(fmt.Sprintf("forward.New: QueueSize must not be negative, got %d", config.QueueSize))
	}
	size := config.QueueSize
	if size == 0 {
		size = DefaultQueueSize
	}
	return &Forwarder{
		publisher: config.Publisher,
		logger:    config.Logger,
		queue:     make(chan reading.Entry, size),
	}
}

// Enqueue offers entry for publishing without blocking. It reports
// false when the queue was full and the entry was dropped.
func (f *Forwarder) Enqueue(entry reading.Entry) bool {
	select {
	case f.queue <- entry:
		return true
	default:
		if f.dropped.Add(1) == 1 {
			f.logger.Warn("forward queue full, dropping entries",
				"queue_size", cap(f.queue),
			)
		}
		return false
	}
}

// Stats returns a snapshot of the counters.
func (f *Forwarder) Stats() Stats {
	return Stats{
		Published: f.published.Load(),
		Failed:    f.failed.Load(),
		Dropped:   f.dropped.Load(),
	}
}

// Run publishes queued entries until ctx is cancelled, then publishes
// whatever is already queued and returns. Entries enqueued after Run
// returns are never published. Cancellation does not abort a publish in
// progress; the Publisher's own timeout bounds it.
func (f *Forwarder) Run(ctx context.Context) {
	f.logger.Info("forwarder started", "queue_size", cap(f.queue))
	publishCtx := context.WithoutCancel(ctx)
	for {
		select {
		case entry := <-f.queue:
			f.publish(publishCtx, entry)
		case <-ctx.Done():
			f.drain(publishCtx)
			stats := f.Stats()
			f.logger.Info("forwarder stopped",
				"published", stats.Published,
				"failed", stats.Failed,
				"dropped", stats.Dropped,
			)
			return
		}
	}
}

func (f *Forwarder) drain(ctx context.Context) {
	for {
		select {
		case entry := <-f.queue:
			f.publish(ctx, entry)
		default:
			return
		}
	}
}

func (f *Forwarder) publish(ctx context.Context, entry reading.Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		f.failed.Add(1)
		f.logger.Error("encoding entry for forwarding failed", "error", err, "timestamp", entry.Timestamp)
		return
	}
	if err := f.publisher.Publish(ctx, payload); err != nil {
		f.failed.Add(1)
		f.logger.Warn("publishing entry failed", "error", err, "timestamp", entry.Timestamp)
		return
	}
	f.published.Add(1)
}
