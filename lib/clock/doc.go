// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the poll
// loop.
//
// Production code takes a Clock and is wired with Real(). Tests wire
// Fake() and drive time forward explicitly:
//
//	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	p := poller.New(poller.Config{Clock: fakeClock, ...})
//	go p.Run(ctx)
//	fakeClock.WaitForTimers(1)      // poller is parked in its wait
//	fakeClock.Advance(time.Second)  // start the next cycle
//
// WaitForTimers closes the race between a goroutine registering a wait
// and the test advancing past it, so tests never sleep on the wall
// clock.
package clock
