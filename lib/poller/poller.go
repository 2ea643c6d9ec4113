// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package poller drives the periodic fetch-and-append cycle.
//
// Each cycle fetches one reading, stamps it with the time the fetch
// completed, and appends it to the history. Between cycles the poller
// waits for either the poll interval to elapse or the stop signal (the
// Run context) to fire, whichever comes first. A stop request is
// therefore honored within one interval, not one fetch timeout.
//
// A failed fetch loses that cycle and nothing else: the failure is
// counted, logged at debug level, and the loop carries on. A fetch
// already in flight when the stop signal fires runs to completion and
// its reading is still appended; no new cycle starts afterwards.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/uradlab/urad-ingester/lib/clock"
	"github.com/uradlab/urad-ingester/lib/history"
	"github.com/uradlab/urad-ingester/lib/reading"
	"github.com/uradlab/urad-ingester/lib/sensor"
)

// DefaultInterval is the wait between the end of one cycle and the
// start of the next.
const DefaultInterval = time.Second

// Config configures a Poller.
type Config struct {
	// Fetcher obtains readings. Required.
	Fetcher sensor.Fetcher

	// Store receives successful readings. Required.
	Store *history.Store

	// Clock stamps readings and times the wait. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Interval is the wait between cycles. Defaults to
	// DefaultInterval.
	Interval time.Duration

	// OnAppend, if set, is called synchronously after each entry is
	// appended. It must not block.
	OnAppend func(reading.Entry)

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// Stats are cumulative counters since the poller was created.
type Stats struct {
	Cycles    uint64
	Successes uint64
	Failures  uint64
}

// Poller runs the fetch-and-append loop. Create with New, start with
// Run.
type Poller struct {
	fetcher  sensor.Fetcher
	store    *history.Store
	clock    clock.Clock
	interval time.Duration
	onAppend func(reading.Entry)
	logger   *slog.Logger

	// lastTimestamp is only touched by the Run goroutine.
	lastTimestamp int64

	cycles    atomic.Uint64
	successes atomic.Uint64
	failures  atomic.Uint64
}

// New creates a Poller. Panics if a required field is missing.
func New(config Config) *Poller {
	if config.Fetcher == nil {
		panic("poller.New: Fetcher is required")
	}
	if config.Store == nil {
		panic("poller.New: Store is required")
	}
	if config.Logger == nil {
		panic("poller.New: Logger is required")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	interval := config.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:  config.Fetcher,
		store:    config.Store,
		clock:    clk,
		interval: interval,
		onAppend: config.OnAppend,
		logger:   config.Logger,
	}
}

// Run polls until ctx is cancelled. The first fetch happens
// immediately. Run returns after the stop signal is observed; it never
// returns while a fetch is in flight.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started", "interval", p.interval)

	for {
		p.cycle(ctx)
		if !p.wait(ctx) {
			break
		}
	}

	stats := p.Stats()
	attributes := []any{
		"cycles", stats.Cycles,
		"successes", stats.Successes,
		"failures", stats.Failures,
		"history", p.store.Len(),
	}
	if last, ok := p.store.Last(); ok {
		attributes = append(attributes, "last_reading", last.Time())
	}
	p.logger.Info("poller stopped", attributes...)
}

// Stats returns the current counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Cycles:    p.cycles.Load(),
		Successes: p.successes.Load(),
		Failures:  p.failures.Load(),
	}
}

// wait blocks until the interval elapses (true) or the stop signal
// fires (false). A signal that fired during the preceding fetch is
// seen before any new timer is armed.
func (p *Poller) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(p.interval):
		return true
	}
}

// cycle performs one fetch and, on success, one append. The fetch is
// detached from ctx so that a stop request does not abort it.
func (p *Poller) cycle(ctx context.Context) {
	p.cycles.Add(1)

	result, err := p.fetcher.Fetch(context.WithoutCancel(ctx))
	if err != nil {
		p.failures.Add(1)
		attributes := []any{"error", err}
		var fetchErr *sensor.FetchError
		if errors.As(err, &fetchErr) {
			attributes = append(attributes, "kind", fetchErr.Kind.String())
		}
		p.logger.Debug("fetch failed, skipping cycle", attributes...)
		return
	}

	entry := reading.NewEntry(result, p.clock.Now())
	// A wall-clock step backwards must not reorder the history.
	if entry.Timestamp < p.lastTimestamp {
		entry.Timestamp = p.lastTimestamp
	}
	p.lastTimestamp = entry.Timestamp

	p.store.Append(entry)
	p.successes.Add(1)

	if p.onAppend != nil {
		p.onAppend(entry)
	}
}
